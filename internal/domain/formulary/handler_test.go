package formulary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	entries map[uuid.UUID]*Entry
}

func newMockRepo() *mockRepo {
	return &mockRepo{entries: make(map[uuid.UUID]*Entry)}
}

func (m *mockRepo) Create(_ context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockRepo) CreateBatch(ctx context.Context, entries []Entry) error {
	for i := range entries {
		if err := m.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound)
	}
	return e, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.entries, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Entry, int, error) {
	all := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockRepo) ListByPlan(_ context.Context, planName string) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if e.PlanName == planName {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockRepo) ListAll(_ context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, nil
}

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	repo := newMockRepo()
	h := NewHandler(NewService(zerolog.Nop()), repo)
	e := echo.New()
	return h, repo, e
}

func seedEntries(t *testing.T, repo *mockRepo) {
	t.Helper()
	for _, e := range testEntries() {
		entry := e
		if err := repo.Create(nil, &entry); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestHandler_CreateEntry(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"drug_name":"Amoxicillin","generic_name":"amoxicillin","plan_name":"Acme Gold","tier":1,"copay":10,"is_covered":true}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.CreateEntry(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_CreateEntry_MissingDrugName(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"plan_name":"Acme Gold","tier":1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.CreateEntry(c); err == nil {
		t.Error("expected error for missing drug_name")
	}
}

func TestHandler_GetEntry_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	if err := h.GetEntry(c); err == nil {
		t.Error("expected error for not found")
	}
}

func TestHandler_DeleteEntry(t *testing.T) {
	h, repo, e := newTestHandler()
	entry := &Entry{DrugName: "Amoxicillin"}
	repo.Create(nil, entry)
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(entry.ID.String())
	if err := h.DeleteEntry(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_LookupCoverage(t *testing.T) {
	h, repo, e := newTestHandler()
	seedEntries(t, repo)
	req := httptest.NewRequest(http.MethodGet, "/?medication=Eliquis", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.LookupCoverage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res CoverageResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Status != StatusPriorAuthRequired {
		t.Errorf("expected PRIOR_AUTH_REQUIRED, got %s", res.Status)
	}
}

func TestHandler_LookupCoverage_MissingMedication(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.LookupCoverage(c); err == nil {
		t.Error("expected error for missing medication param")
	}
}

func TestHandler_FindAlternatives(t *testing.T) {
	h, repo, e := newTestHandler()
	seedEntries(t, repo)
	req := httptest.NewRequest(http.MethodGet, "/?medication=Zepbound&max_results=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.FindAlternatives(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var alts []AlternativeSuggestion
	if err := json.Unmarshal(rec.Body.Bytes(), &alts); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(alts) != 2 {
		t.Errorf("expected 2 alternatives, got %d", len(alts))
	}
}

func TestHandler_FindAlternatives_InvalidMax(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?medication=Zepbound&max_results=zero", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.FindAlternatives(c); err == nil {
		t.Error("expected error for invalid max_results")
	}
}

func TestHandler_ImportExtraction(t *testing.T) {
	h, repo, e := newTestHandler()
	body := `{"plan_name":"Acme Silver","entries":[{"drug_name":"Lisinopril","generic_name":"lisinopril","tier":1,"copay_min":10}]}`
	req := httptest.NewRequest(http.MethodPost, "/?plan=Acme+Gold", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ImportExtraction(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	all, _ := repo.ListAll(nil)
	if len(all) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(all))
	}
	if all[0].PlanName != "Acme Gold" {
		t.Errorf("plan override must win, got %q", all[0].PlanName)
	}
}

func TestHandler_ImportExtraction_Empty(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"plan_name":"Acme"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ImportExtraction(c); err == nil {
		t.Error("expected error for empty entries")
	}
}
