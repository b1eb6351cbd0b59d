package refdata

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pharmasense/pharmasense/internal/domain/formulary"
	"github.com/pharmasense/pharmasense/internal/domain/rules"
)

type stubInteractionRepo struct {
	rows []rules.DrugInteraction
	err  error
}

func (s *stubInteractionRepo) Create(context.Context, *rules.DrugInteraction) error { return nil }
func (s *stubInteractionRepo) GetByID(context.Context, uuid.UUID) (*rules.DrugInteraction, error) {
	return nil, nil
}
func (s *stubInteractionRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (s *stubInteractionRepo) List(context.Context, int, int) ([]*rules.DrugInteraction, int, error) {
	return nil, 0, nil
}
func (s *stubInteractionRepo) ListAll(context.Context) ([]rules.DrugInteraction, error) {
	return s.rows, s.err
}

type stubDoseRepo struct {
	rows []rules.DoseRange
	err  error
}

func (s *stubDoseRepo) Create(context.Context, *rules.DoseRange) error { return nil }
func (s *stubDoseRepo) GetByID(context.Context, uuid.UUID) (*rules.DoseRange, error) {
	return nil, nil
}
func (s *stubDoseRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (s *stubDoseRepo) List(context.Context, int, int) ([]*rules.DoseRange, int, error) {
	return nil, 0, nil
}
func (s *stubDoseRepo) ListAll(context.Context) ([]rules.DoseRange, error) {
	return s.rows, s.err
}

type stubFormularyRepo struct {
	rows []formulary.Entry
	err  error
}

func (s *stubFormularyRepo) Create(context.Context, *formulary.Entry) error      { return nil }
func (s *stubFormularyRepo) CreateBatch(context.Context, []formulary.Entry) error { return nil }
func (s *stubFormularyRepo) GetByID(context.Context, uuid.UUID) (*formulary.Entry, error) {
	return nil, nil
}
func (s *stubFormularyRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (s *stubFormularyRepo) List(context.Context, int, int) ([]*formulary.Entry, int, error) {
	return nil, 0, nil
}
func (s *stubFormularyRepo) ListByPlan(context.Context, string) ([]formulary.Entry, error) {
	return nil, nil
}
func (s *stubFormularyRepo) ListAll(context.Context) ([]formulary.Entry, error) {
	return s.rows, s.err
}

func TestCacheReload(t *testing.T) {
	interactions := &stubInteractionRepo{rows: []rules.DrugInteraction{
		{DrugA: "Warfarin", DrugB: "Aspirin", Severity: rules.SeveritySevere},
	}}
	doses := &stubDoseRepo{rows: []rules.DoseRange{
		{MedicationName: "Amoxicillin", MinDoseMg: 250, MaxDoseMg: 1000},
	}}
	entries := &stubFormularyRepo{rows: []formulary.Entry{
		{DrugName: "Amoxicillin", Tier: 1, Copay: 10, IsCovered: true},
	}}

	cache := NewCache(interactions, doses, entries, zerolog.Nop())
	if !cache.LoadedAt().IsZero() {
		t.Fatal("fresh cache must report zero load time")
	}

	if err := cache.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if len(cache.DrugInteractions()) != 1 {
		t.Errorf("interactions not cached: %v", cache.DrugInteractions())
	}
	if len(cache.DoseRanges()) != 1 {
		t.Errorf("dose ranges not cached: %v", cache.DoseRanges())
	}
	if len(cache.FormularyEntries()) != 1 {
		t.Errorf("formulary not cached: %v", cache.FormularyEntries())
	}
	if cache.LoadedAt().IsZero() {
		t.Error("load time not recorded")
	}
}

func TestCacheReload_FailureKeepsSnapshot(t *testing.T) {
	interactions := &stubInteractionRepo{rows: []rules.DrugInteraction{{DrugA: "A", DrugB: "B"}}}
	doses := &stubDoseRepo{}
	entries := &stubFormularyRepo{}

	cache := NewCache(interactions, doses, entries, zerolog.Nop())
	if err := cache.Reload(context.Background()); err != nil {
		t.Fatalf("first reload: %v", err)
	}

	interactions.err = errors.New("connection refused")
	if err := cache.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}

	if len(cache.DrugInteractions()) != 1 {
		t.Error("failed reload must keep the previous snapshot")
	}
}
