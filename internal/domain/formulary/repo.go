package formulary

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	CreateBatch(ctx context.Context, entries []Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Entry, int, error)
	ListByPlan(ctx context.Context, planName string) ([]Entry, error)
	ListAll(ctx context.Context) ([]Entry, error)
}
