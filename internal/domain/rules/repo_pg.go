package rules

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmasense/pharmasense/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Drug Interaction Repository ===========

type interactionRepoPG struct{ pool *pgxpool.Pool }

func NewInteractionRepoPG(pool *pgxpool.Pool) DrugInteractionRepository {
	return &interactionRepoPG{pool: pool}
}

const interactionCols = `id, drug_a, drug_b, severity, description, created_at`

func scanInteraction(row pgx.Row) (*DrugInteraction, error) {
	var d DrugInteraction
	err := row.Scan(&d.ID, &d.DrugA, &d.DrugB, &d.Severity, &d.Description, &d.CreatedAt)
	return &d, err
}

func (r *interactionRepoPG) Create(ctx context.Context, d *DrugInteraction) error {
	d.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO drug_interaction (id, drug_a, drug_b, severity, description)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.DrugA, d.DrugB, d.Severity, d.Description)
	return err
}

func (r *interactionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DrugInteraction, error) {
	return scanInteraction(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+interactionCols+` FROM drug_interaction WHERE id = $1`, id))
}

func (r *interactionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM drug_interaction WHERE id = $1`, id)
	return err
}

func (r *interactionRepoPG) List(ctx context.Context, limit, offset int) ([]*DrugInteraction, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM drug_interaction`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+interactionCols+` FROM drug_interaction ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*DrugInteraction
	for rows.Next() {
		d, err := scanInteraction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *interactionRepoPG) ListAll(ctx context.Context) ([]DrugInteraction, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+interactionCols+` FROM drug_interaction ORDER BY drug_a, drug_b`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DrugInteraction
	for rows.Next() {
		d, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// =========== Dose Range Repository ===========

type doseRangeRepoPG struct{ pool *pgxpool.Pool }

func NewDoseRangeRepoPG(pool *pgxpool.Pool) DoseRangeRepository {
	return &doseRangeRepoPG{pool: pool}
}

const doseRangeCols = `id, medication_name, min_dose_mg, max_dose_mg, unit, frequency, created_at`

func scanDoseRange(row pgx.Row) (*DoseRange, error) {
	var d DoseRange
	err := row.Scan(&d.ID, &d.MedicationName, &d.MinDoseMg, &d.MaxDoseMg, &d.Unit, &d.Frequency, &d.CreatedAt)
	return &d, err
}

func (r *doseRangeRepoPG) Create(ctx context.Context, d *DoseRange) error {
	d.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO dose_range (id, medication_name, min_dose_mg, max_dose_mg, unit, frequency)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.MedicationName, d.MinDoseMg, d.MaxDoseMg, d.Unit, d.Frequency)
	return err
}

func (r *doseRangeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DoseRange, error) {
	return scanDoseRange(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+doseRangeCols+` FROM dose_range WHERE id = $1`, id))
}

func (r *doseRangeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM dose_range WHERE id = $1`, id)
	return err
}

func (r *doseRangeRepoPG) List(ctx context.Context, limit, offset int) ([]*DoseRange, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM dose_range`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+doseRangeCols+` FROM dose_range ORDER BY medication_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*DoseRange
	for rows.Next() {
		d, err := scanDoseRange(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *doseRangeRepoPG) ListAll(ctx context.Context) ([]DoseRange, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+doseRangeCols+` FROM dose_range ORDER BY medication_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DoseRange
	for rows.Next() {
		d, err := scanDoseRange(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}
