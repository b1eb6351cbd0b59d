package prescription

import (
	"testing"

	"github.com/google/uuid"
)

func receiptFixture() *Prescription {
	copayA := 10.0
	copayB := 45.0
	altCopay := 4.0
	return &Prescription{
		ID: uuid.New(),
		Items: []RecommendationItem{
			{
				Primary: RecommendedDrug{
					DrugName:       "Amoxicillin",
					Dosage:         "500mg",
					Rationale:      "First-line therapy for streptococcal pharyngitis",
					Tier:           1,
					EstimatedCopay: &copayA,
					IsCovered:      true,
				},
			},
			{
				Primary: RecommendedDrug{
					DrugName:          "Eliquis",
					Dosage:            "5mg",
					Tier:              4,
					EstimatedCopay:    &copayB,
					IsCovered:         true,
					RequiresPriorAuth: true,
				},
				Alternatives: []AlternativeDrug{
					{DrugName: "Warfarin", EstimatedCopay: &altCopay, Reason: "Preferred Generic, estimated copay $4.00"},
				},
			},
		},
	}
}

func TestBuildReceipt_CoverageTotals(t *testing.T) {
	rx := receiptFixture()
	r := buildReceipt(rx, receiptParty{PlanName: "Acme Gold", MemberID: "M123"})

	if r.Coverage.TotalCopay != 55 {
		t.Errorf("expected total copay 55, got %v", r.Coverage.TotalCopay)
	}
	if r.Coverage.ItemsCovered != 2 || r.Coverage.ItemsNotCovered != 0 {
		t.Errorf("coverage counts wrong: %+v", r.Coverage)
	}
	if len(r.Coverage.PriorAuthRequired) != 1 || r.Coverage.PriorAuthRequired[0] != "Eliquis" {
		t.Errorf("prior-auth drugs wrong: %v", r.Coverage.PriorAuthRequired)
	}
	if r.Coverage.PlanName != "Acme Gold" || r.Coverage.MemberID != "M123" {
		t.Errorf("party data lost: %+v", r.Coverage)
	}
	if len(r.Drugs) != 2 {
		t.Fatalf("expected 2 drug items, got %d", len(r.Drugs))
	}
	if r.Status != "approved" {
		t.Errorf("receipt status must be approved, got %q", r.Status)
	}
}

func TestBuildReceipt_WarningBuckets(t *testing.T) {
	rx := receiptFixture()
	rx.Items[0].Warnings = []string{
		"Patient is allergic to 'Penicillin'; 'Amoxicillin' is contraindicated",
		"MODERATE interaction: Amoxicillin + Methotrexate",
		"Dose 2000mg exceeds maximum of 1000mg",
		"Manual review recommended",
	}

	r := buildReceipt(rx, receiptParty{})

	if r.Safety.AllPassed {
		t.Error("bucketed warnings must clear all_passed")
	}
	if len(r.Safety.AllergyFlags) != 1 {
		t.Errorf("allergy flags: %v", r.Safety.AllergyFlags)
	}
	if len(r.Safety.InteractionFlags) != 1 {
		t.Errorf("interaction flags: %v", r.Safety.InteractionFlags)
	}
	if len(r.Safety.DoseRangeFlags) != 1 {
		t.Errorf("dose flags: %v", r.Safety.DoseRangeFlags)
	}

	// Unrecognised warning appears as a passing informational check.
	var info int
	for _, c := range r.Safety.Checks {
		if c.CheckType == "INFO" {
			info++
			if !c.Passed {
				t.Error("informational check must count as passed")
			}
		}
	}
	if info != 1 {
		t.Errorf("expected 1 INFO check, got %d", info)
	}
	if len(r.Safety.Checks) != 4 {
		t.Errorf("every warning becomes a check, got %d", len(r.Safety.Checks))
	}
}

func TestBuildReceipt_AllPassedWhenNoWarnings(t *testing.T) {
	r := buildReceipt(receiptFixture(), receiptParty{})
	if !r.Safety.AllPassed {
		t.Error("no warnings must yield all_passed")
	}
	if len(r.Safety.Checks) != 0 {
		t.Errorf("no warnings, no checks: %+v", r.Safety.Checks)
	}
}

func TestBuildReceipt_ReasoningFromFirstItem(t *testing.T) {
	r := buildReceipt(receiptFixture(), receiptParty{})
	if r.Reasoning == nil {
		t.Fatal("rationale on the first item must produce reasoning")
	}
	if r.Reasoning.ClinicianSummary != "First-line therapy for streptococcal pharyngitis" {
		t.Errorf("clinician summary wrong: %q", r.Reasoning.ClinicianSummary)
	}

	rx := receiptFixture()
	rx.Items[0].Primary.Rationale = ""
	if got := buildReceipt(rx, receiptParty{}); got.Reasoning != nil {
		t.Error("blank rationale must omit reasoning")
	}
}

func TestBuildReceipt_Alternatives(t *testing.T) {
	r := buildReceipt(receiptFixture(), receiptParty{})
	if len(r.Alternatives) != 1 {
		t.Fatalf("expected 1 alternative, got %d", len(r.Alternatives))
	}
	alt := r.Alternatives[0]
	if alt.DrugName != "Warfarin" || alt.Copay == nil || *alt.Copay != 4 || alt.CoverageStatus != "UNKNOWN" {
		t.Errorf("alternative mapping wrong: %+v", alt)
	}
}
