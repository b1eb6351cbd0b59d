package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmasense/pharmasense/internal/apperr"
	"github.com/pharmasense/pharmasense/internal/platform/db"
)

type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StorePG persists prescriptions and receipts in Postgres. Items,
// rules results, and receipts are stored as jsonb documents.
type StorePG struct {
	pool *pgxpool.Pool
}

func NewStorePG(pool *pgxpool.Pool) *StorePG {
	return &StorePG{pool: pool}
}

func (s *StorePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

func (s *StorePG) SavePrescription(ctx context.Context, rx *Prescription) error {
	if rx.ID == uuid.Nil {
		rx.ID = uuid.New()
	}
	if rx.CreatedAt.IsZero() {
		rx.CreatedAt = time.Now().UTC()
	}

	items, err := json.Marshal(rx.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	rulesResults, err := json.Marshal(rx.RulesResults)
	if err != nil {
		return fmt.Errorf("marshal rules results: %w", err)
	}

	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, visit_id, patient_id, status, items, rules_results, rejection_reason, created_at, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			items = EXCLUDED.items,
			rules_results = EXCLUDED.rules_results,
			rejection_reason = EXCLUDED.rejection_reason,
			approved_at = EXCLUDED.approved_at`,
		rx.ID, rx.VisitID, rx.PatientID, rx.Status, items, rulesResults,
		rx.RejectionReason, rx.CreatedAt, rx.ApprovedAt)
	return err
}

const prescriptionCols = `id, visit_id, patient_id, status, items, rules_results, rejection_reason, created_at, approved_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var (
		rx           Prescription
		items        []byte
		rulesResults []byte
	)
	err := row.Scan(&rx.ID, &rx.VisitID, &rx.PatientID, &rx.Status, &items,
		&rulesResults, &rx.RejectionReason, &rx.CreatedAt, &rx.ApprovedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &rx.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(rulesResults, &rx.RulesResults); err != nil {
		return nil, fmt.Errorf("unmarshal rules results: %w", err)
	}
	return &rx, nil
}

func (s *StorePG) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	row := s.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id)
	rx, err := scanPrescription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("Prescription", id.String())
	}
	return rx, err
}

func (s *StorePG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Prescription, error) {
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		rx, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rx)
	}
	return out, rows.Err()
}

func (s *StorePG) SaveReceipt(ctx context.Context, prescriptionID uuid.UUID, receipt *Receipt) error {
	doc, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO prescription_receipt (prescription_id, receipt, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (prescription_id) DO UPDATE SET receipt = EXCLUDED.receipt`,
		prescriptionID, doc, time.Now().UTC())
	return err
}

func (s *StorePG) GetReceipt(ctx context.Context, prescriptionID uuid.UUID) (*Receipt, error) {
	var doc []byte
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT receipt FROM prescription_receipt WHERE prescription_id = $1`, prescriptionID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("Receipt", prescriptionID.String())
	}
	if err != nil {
		return nil, err
	}
	var receipt Receipt
	if err := json.Unmarshal(doc, &receipt); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return &receipt, nil
}
