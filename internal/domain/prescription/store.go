package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Store persists prescriptions and their receipts. Implementations
// return apperr.ResourceNotFoundError for absent keys.
type Store interface {
	SavePrescription(ctx context.Context, rx *Prescription) error
	GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Prescription, error)
	SaveReceipt(ctx context.Context, prescriptionID uuid.UUID, receipt *Receipt) error
	GetReceipt(ctx context.Context, prescriptionID uuid.UUID) (*Receipt, error)
}
