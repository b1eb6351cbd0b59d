package rules

import (
	"context"

	"github.com/google/uuid"
)

type DrugInteractionRepository interface {
	Create(ctx context.Context, d *DrugInteraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*DrugInteraction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*DrugInteraction, int, error)
	ListAll(ctx context.Context) ([]DrugInteraction, error)
}

type DoseRangeRepository interface {
	Create(ctx context.Context, d *DoseRange) error
	GetByID(ctx context.Context, id uuid.UUID) (*DoseRange, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*DoseRange, int, error)
	ListAll(ctx context.Context) ([]DoseRange, error)
}
