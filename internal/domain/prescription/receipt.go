package prescription

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReceiptDrugItem is one approved drug on the receipt, with its
// coverage annotation frozen at approval time.
type ReceiptDrugItem struct {
	DrugName          string   `json:"drug_name"`
	GenericName       string   `json:"generic_name"`
	Dosage            string   `json:"dosage"`
	Frequency         string   `json:"frequency"`
	Duration          string   `json:"duration"`
	Route             string   `json:"route"`
	Tier              int      `json:"tier,omitempty"`
	TierLabel         string   `json:"tier_label,omitempty"`
	Copay             *float64 `json:"copay,omitempty"`
	IsCovered         bool     `json:"is_covered"`
	RequiresPriorAuth bool     `json:"requires_prior_auth"`
}

// ReceiptSafetyCheck is one line of the receipt's safety audit trail.
type ReceiptSafetyCheck struct {
	CheckType string `json:"check_type"`
	Passed    bool   `json:"passed"`
	Severity  string `json:"severity,omitempty"`
	Message   string `json:"message"`
}

type ReceiptSafetySummary struct {
	AllPassed        bool                 `json:"all_passed"`
	Checks           []ReceiptSafetyCheck `json:"checks"`
	AllergyFlags     []string             `json:"allergy_flags"`
	InteractionFlags []string             `json:"interaction_flags"`
	DoseRangeFlags   []string             `json:"dose_range_flags"`
}

type ReceiptCoverageSummary struct {
	PlanName          string   `json:"plan_name"`
	MemberID          string   `json:"member_id"`
	TotalCopay        float64  `json:"total_copay"`
	ItemsCovered      int      `json:"items_covered"`
	ItemsNotCovered   int      `json:"items_not_covered"`
	PriorAuthRequired []string `json:"prior_auth_required"`
}

type ReceiptAlternative struct {
	DrugName       string   `json:"drug_name"`
	Copay          *float64 `json:"copay,omitempty"`
	CoverageStatus string   `json:"coverage_status"`
	Reason         string   `json:"reason"`
}

type ReceiptReasoning struct {
	ClinicianSummary   string `json:"clinician_summary"`
	PatientExplanation string `json:"patient_explanation"`
}

// Receipt is the coverage-aware safety receipt produced for every
// approved prescription. It is the shareable record of what was
// prescribed, what the safety checks found, and what it will cost.
type Receipt struct {
	ReceiptID      uuid.UUID `json:"receipt_id"`
	PrescriptionID uuid.UUID `json:"prescription_id"`
	VisitID        uuid.UUID `json:"visit_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	ClinicianID    uuid.UUID `json:"clinician_id"`
	PatientName    string    `json:"patient_name"`
	ClinicianName  string    `json:"clinician_name"`
	IssuedAt       time.Time `json:"issued_at"`
	Status         string    `json:"status"`

	Drugs    []ReceiptDrugItem      `json:"drugs"`
	Safety   ReceiptSafetySummary   `json:"safety"`
	Coverage ReceiptCoverageSummary `json:"coverage"`

	Alternatives []ReceiptAlternative `json:"alternatives"`
	Reasoning    *ReceiptReasoning    `json:"reasoning,omitempty"`

	Notes         string `json:"notes,omitempty"`
	SignatureHash string `json:"signature_hash,omitempty"`
}

// receiptParty carries the identity fields stamped onto a receipt.
type receiptParty struct {
	PatientName   string
	ClinicianName string
	PatientID     uuid.UUID
	ClinicianID   uuid.UUID
	VisitID       uuid.UUID
	PlanName      string
	MemberID      string
}

// buildReceipt assembles the safety receipt from a prescription's stored
// items. Warnings are bucketed by keyword: an unrecognised warning still
// appears in the audit trail as an informational check but does not
// affect allPassed.
func buildReceipt(rx *Prescription, party receiptParty) *Receipt {
	var (
		drugs            []ReceiptDrugItem
		safetyChecks     []ReceiptSafetyCheck
		allergyFlags     []string
		interactionFlags []string
		doseFlags        []string
		priorAuthDrugs   []string
		totalCopay       float64
		itemsCovered     int
		itemsNotCovered  int
	)

	for _, item := range rx.Items {
		p := item.Primary
		drugs = append(drugs, ReceiptDrugItem{
			DrugName:          p.DrugName,
			GenericName:       p.GenericName,
			Dosage:            p.Dosage,
			Frequency:         p.Frequency,
			Duration:          p.Duration,
			Route:             p.Route,
			Tier:              p.Tier,
			Copay:             p.EstimatedCopay,
			IsCovered:         p.IsCovered,
			RequiresPriorAuth: p.RequiresPriorAuth,
		})

		if p.EstimatedCopay != nil {
			totalCopay += *p.EstimatedCopay
		}
		if p.IsCovered {
			itemsCovered++
		} else {
			itemsNotCovered++
		}
		if p.RequiresPriorAuth {
			priorAuthDrugs = append(priorAuthDrugs, p.DrugName)
		}

		for _, w := range item.Warnings {
			lower := strings.ToLower(w)
			hasIssue := true
			switch {
			case strings.Contains(lower, "allerg"):
				allergyFlags = append(allergyFlags, w)
			case strings.Contains(lower, "interaction"):
				interactionFlags = append(interactionFlags, w)
			case strings.Contains(lower, "dose"):
				doseFlags = append(doseFlags, w)
			default:
				hasIssue = false
			}

			checkType := "INFO"
			if hasIssue {
				checkType = "WARNING"
			}
			safetyChecks = append(safetyChecks, ReceiptSafetyCheck{
				CheckType: checkType,
				Passed:    !hasIssue,
				Severity:  "WARNING",
				Message:   w,
			})
		}
	}

	allPassed := len(allergyFlags) == 0 && len(interactionFlags) == 0 && len(doseFlags) == 0

	var alternatives []ReceiptAlternative
	for _, item := range rx.Items {
		for _, alt := range item.Alternatives {
			alternatives = append(alternatives, ReceiptAlternative{
				DrugName:       alt.DrugName,
				Copay:          alt.EstimatedCopay,
				CoverageStatus: "UNKNOWN",
				Reason:         alt.Reason,
			})
		}
	}

	var reasoning *ReceiptReasoning
	if len(rx.Items) > 0 {
		if rationale := rx.Items[0].Primary.Rationale; rationale != "" {
			reasoning = &ReceiptReasoning{
				ClinicianSummary:   rationale,
				PatientExplanation: rationale,
			}
		}
	}

	return &Receipt{
		ReceiptID:      uuid.New(),
		PrescriptionID: rx.ID,
		VisitID:        party.VisitID,
		PatientID:      party.PatientID,
		ClinicianID:    party.ClinicianID,
		PatientName:    party.PatientName,
		ClinicianName:  party.ClinicianName,
		IssuedAt:       time.Now().UTC(),
		Status:         string(StatusApproved),
		Drugs:          drugs,
		Safety: ReceiptSafetySummary{
			AllPassed:        allPassed,
			Checks:           safetyChecks,
			AllergyFlags:     allergyFlags,
			InteractionFlags: interactionFlags,
			DoseRangeFlags:   doseFlags,
		},
		Coverage: ReceiptCoverageSummary{
			PlanName:          party.PlanName,
			MemberID:          party.MemberID,
			TotalCopay:        totalCopay,
			ItemsCovered:      itemsCovered,
			ItemsNotCovered:   itemsNotCovered,
			PriorAuthRequired: priorAuthDrugs,
		},
		Alternatives: alternatives,
		Reasoning:    reasoning,
	}
}
