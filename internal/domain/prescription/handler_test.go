package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pharmasense/pharmasense/internal/domain/formulary"
	"github.com/pharmasense/pharmasense/internal/domain/rules"
	"github.com/pharmasense/pharmasense/internal/platform/ai"
	"github.com/pharmasense/pharmasense/internal/platform/analytics"
)

type mockRefSource struct {
	interactions []rules.DrugInteraction
	doseRanges   []rules.DoseRange
	entries      []formulary.Entry
}

func (m *mockRefSource) DrugInteractions() []rules.DrugInteraction { return m.interactions }
func (m *mockRefSource) DoseRanges() []rules.DoseRange             { return m.doseRanges }
func (m *mockRefSource) FormularyEntries() []formulary.Entry       { return m.entries }

func newTestHandler(rec *mockRecommender) (*Handler, *MemoryStore) {
	store := NewMemoryStore()
	svc := NewService(
		rec,
		rules.NewEngine(zerolog.Nop()),
		formulary.NewService(zerolog.Nop()),
		analytics.NewBuffer(zerolog.Nop()),
		store,
		zerolog.Nop(),
	)
	refs := &mockRefSource{
		entries: []formulary.Entry{
			{DrugName: "Amoxicillin", GenericName: "amoxicillin", PlanName: "Acme Gold", Tier: 1, Copay: 10, IsCovered: true},
		},
	}
	return NewHandler(svc, refs, "Acme Gold"), store
}

func doJSON(h echo.HandlerFunc, method, target, body string, setup func(echo.Context)) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	return rec, h(c)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return httpErr.Code
}

func TestHandlerRecommend(t *testing.T) {
	h, _ := newTestHandler(&mockRecommender{output: &ai.RecommendationOutput{
		Recommendations: []ai.Candidate{candidate("Amoxicillin", "500mg")},
	}})

	body := fmt.Sprintf(`{"visit_id":%q,"patient_id":%q,"chief_complaint":"sore throat"}`,
		uuid.New(), uuid.New())
	rec, err := doJSON(h.Recommend, http.MethodPost, "/prescriptions/recommend?plan=Acme+Gold", body, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp RecommendationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Recommendations) != 1 {
		t.Errorf("expected 1 recommendation, got %d", len(resp.Recommendations))
	}
	if resp.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("model name missing from response: %q", resp.GeminiModel)
	}
}

func TestHandlerRecommend_MissingChiefComplaint(t *testing.T) {
	h, _ := newTestHandler(&mockRecommender{})

	body := fmt.Sprintf(`{"visit_id":%q}`, uuid.New())
	_, err := doJSON(h.Recommend, http.MethodPost, "/prescriptions/recommend", body, nil)
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestHandlerValidate(t *testing.T) {
	h, _ := newTestHandler(&mockRecommender{})

	body := fmt.Sprintf(`{"visit_id":%q,"patient_id":%q,"proposed_drugs":[{"drug_name":"Amoxicillin","dosage":"500mg"}]}`,
		uuid.New(), uuid.New())
	rec, err := doJSON(h.Validate, http.MethodPost, "/prescriptions/validate?allergies=Penicillin", body, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp ValidationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Blocked {
		t.Error("allergy query param must reach the rules engine")
	}
}

func TestHandlerValidate_EmptyDrugs(t *testing.T) {
	h, _ := newTestHandler(&mockRecommender{})
	_, err := doJSON(h.Validate, http.MethodPost, "/prescriptions/validate", `{"proposed_drugs":[]}`, nil)
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestHandlerApprove_BlockedReturns422(t *testing.T) {
	h, store := newTestHandler(&mockRecommender{})
	rx := &Prescription{
		Status: StatusRecommended,
		Items: []RecommendationItem{{
			Primary:  RecommendedDrug{DrugName: "Amoxicillin"},
			Warnings: []string{"Patient is allergic to 'Penicillin'"},
		}},
		RulesResults: []RuleOutcome{{Medication: "Amoxicillin", Blocked: true}},
	}
	if err := store.SavePrescription(context.Background(), rx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := fmt.Sprintf(`{"prescription_id":%q,"confirmed_safety_review":true}`, rx.ID)
	_, err := doJSON(h.Approve, http.MethodPost, "/prescriptions/approve", body, nil)
	if got := httpStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("safety block must map to 422, got %d", got)
	}
}

func TestHandlerApprove_NotFoundReturns404(t *testing.T) {
	h, _ := newTestHandler(&mockRecommender{})
	body := fmt.Sprintf(`{"prescription_id":%q,"confirmed_safety_review":true}`, uuid.New())
	_, err := doJSON(h.Approve, http.MethodPost, "/prescriptions/approve", body, nil)
	if got := httpStatus(t, err); got != http.StatusNotFound {
		t.Errorf("missing prescription must map to 404, got %d", got)
	}
}

func TestHandlerApprove_MissingAttestationReturns400(t *testing.T) {
	h, store := newTestHandler(&mockRecommender{})
	rx := &Prescription{
		Status:       StatusRecommended,
		Items:        []RecommendationItem{{Primary: RecommendedDrug{DrugName: "Amoxicillin"}}},
		RulesResults: []RuleOutcome{{Medication: "Amoxicillin"}},
	}
	if err := store.SavePrescription(context.Background(), rx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := fmt.Sprintf(`{"prescription_id":%q,"confirmed_safety_review":false}`, rx.ID)
	_, err := doJSON(h.Approve, http.MethodPost, "/prescriptions/approve", body, nil)
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("missing attestation must map to 400, got %d", got)
	}
}

func TestHandlerApprove_Success(t *testing.T) {
	h, store := newTestHandler(&mockRecommender{})
	copay := 10.0
	rx := &Prescription{
		Status: StatusRecommended,
		Items: []RecommendationItem{{
			Primary: RecommendedDrug{DrugName: "Amoxicillin", EstimatedCopay: &copay, IsCovered: true},
		}},
		RulesResults: []RuleOutcome{{Medication: "Amoxicillin"}},
	}
	if err := store.SavePrescription(context.Background(), rx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := fmt.Sprintf(`{"prescription_id":%q,"confirmed_safety_review":true}`, rx.ID)
	rec, err := doJSON(h.Approve, http.MethodPost, "/prescriptions/approve?patient_name=Ana+Silva&plan=Acme+Gold", body, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var receipt Receipt
	if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if receipt.PatientName != "Ana Silva" || receipt.Coverage.PlanName != "Acme Gold" {
		t.Errorf("approval context lost: %+v", receipt)
	}
}

func TestHandlerReject(t *testing.T) {
	h, store := newTestHandler(&mockRecommender{})
	rx := &Prescription{Status: StatusRecommended, Items: []RecommendationItem{{Primary: RecommendedDrug{DrugName: "Amoxicillin"}}}}
	if err := store.SavePrescription(context.Background(), rx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := fmt.Sprintf(`{"prescription_id":%q,"reason":"patient declined"}`, rx.ID)
	rec, err := doJSON(h.Reject, http.MethodPost, "/prescriptions/reject", body, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	stored, _ := store.GetPrescription(context.Background(), rx.ID)
	if stored.Status != StatusRejected {
		t.Errorf("prescription not rejected: %s", stored.Status)
	}
}

func TestHandlerReject_EmptyReason(t *testing.T) {
	h, store := newTestHandler(&mockRecommender{})
	rx := &Prescription{Status: StatusRecommended}
	if err := store.SavePrescription(context.Background(), rx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := fmt.Sprintf(`{"prescription_id":%q,"reason":""}`, rx.ID)
	_, err := doJSON(h.Reject, http.MethodPost, "/prescriptions/reject", body, nil)
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("empty reason must map to 400, got %d", got)
	}
}

func TestHandlerGetReceipt_NotFound(t *testing.T) {
	h, _ := newTestHandler(&mockRecommender{})

	_, err := doJSON(h.GetReceipt, http.MethodGet, "/prescriptions/x/receipt", "", func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues(uuid.NewString())
	})
	if got := httpStatus(t, err); got != http.StatusNotFound {
		t.Errorf("expected 404, got %d", got)
	}
}

func TestHandlerGetReceipt_InvalidID(t *testing.T) {
	h, _ := newTestHandler(&mockRecommender{})

	_, err := doJSON(h.GetReceipt, http.MethodGet, "/prescriptions/x/receipt", "", func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues("not-a-uuid")
	})
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestHandlerListByVisit(t *testing.T) {
	h, store := newTestHandler(&mockRecommender{})
	visit := uuid.New()
	if err := store.SavePrescription(context.Background(), &Prescription{VisitID: visit, Status: StatusRecommended}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec, err := doJSON(h.ListByVisit, http.MethodGet, "/prescriptions?visit_id="+visit.String(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var items []*Prescription
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 prescription, got %d", len(items))
	}
}

func TestHandlerPatientPack_NotApproved(t *testing.T) {
	h, store := newTestHandler(&mockRecommender{})
	rx := &Prescription{Status: StatusRecommended, Items: []RecommendationItem{{Primary: RecommendedDrug{DrugName: "Amoxicillin"}}}}
	if err := store.SavePrescription(context.Background(), rx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := doJSON(h.PatientPack, http.MethodPost, "/prescriptions/x/patient-pack", "", func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues(rx.ID.String())
	})
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("unapproved prescription must map to 400, got %d", got)
	}
}
