package formulary

import (
	"time"

	"github.com/google/uuid"
)

// CoverageStatus classifies how a plan subsidizes a drug.
type CoverageStatus string

const (
	StatusCovered           CoverageStatus = "COVERED"
	StatusNotCovered        CoverageStatus = "NOT_COVERED"
	StatusPriorAuthRequired CoverageStatus = "PRIOR_AUTH_REQUIRED"
	StatusUnknown           CoverageStatus = "UNKNOWN"
)

// tierLabels maps formulary tiers 1-5 to their display labels.
var tierLabels = map[int]string{
	1: "Preferred Generic",
	2: "Non-Preferred Generic",
	3: "Preferred Brand",
	4: "Non-Preferred Brand",
	5: "Specialty",
}

// TierLabel returns the display label for a tier, or "" when unknown.
func TierLabel(tier int) string {
	return tierLabels[tier]
}

// Entry maps to the formulary_entry table. Entries are plan-scoped:
// the same drug may appear in several plans with different terms.
type Entry struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	DrugName            string    `db:"drug_name" json:"drug_name"`
	GenericName         string    `db:"generic_name" json:"generic_name"`
	PlanName            string    `db:"plan_name" json:"plan_name"`
	Tier                int       `db:"tier" json:"tier"`
	Copay               float64   `db:"copay" json:"copay"`
	IsCovered           bool      `db:"is_covered" json:"is_covered"`
	RequiresPriorAuth   bool      `db:"requires_prior_auth" json:"requires_prior_auth"`
	QuantityLimit       string    `db:"quantity_limit" json:"quantity_limit"`
	StepTherapyRequired bool      `db:"step_therapy_required" json:"step_therapy_required"`
	Notes               string    `db:"notes" json:"notes"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// CoverageResult is the outcome of a single coverage lookup.
type CoverageResult struct {
	MedicationName    string         `json:"medication_name"`
	Status            CoverageStatus `json:"status"`
	Tier              int            `json:"tier,omitempty"`
	TierLabel         string         `json:"tier_label,omitempty"`
	Copay             *float64       `json:"copay,omitempty"`
	IsCovered         bool           `json:"is_covered"`
	RequiresPriorAuth bool           `json:"requires_prior_auth"`
	PlanName          string         `json:"plan_name"`
	Notes             string         `json:"notes,omitempty"`
}

// AlternativeSuggestion is one cheaper covered alternative for a drug.
type AlternativeSuggestion struct {
	DrugName    string  `json:"drug_name"`
	GenericName string  `json:"generic_name"`
	Tier        int     `json:"tier"`
	Copay       float64 `json:"copay"`
	Reason      string  `json:"reason"`
}

// ExtractedEntry is one row of an externally supplied formulary
// extraction (e.g. from a plan document processed upstream).
type ExtractedEntry struct {
	DrugName            string   `json:"drug_name"`
	GenericName         string   `json:"generic_name"`
	Tier                int      `json:"tier"`
	CopayMin            *float64 `json:"copay_min,omitempty"`
	CopayMax            *float64 `json:"copay_max,omitempty"`
	RequiresPriorAuth   bool     `json:"requires_prior_auth"`
	QuantityLimit       string   `json:"quantity_limit"`
	StepTherapyRequired bool     `json:"step_therapy_required"`
	Notes               string   `json:"notes"`
}

// Extraction is the full payload of an upstream formulary extraction.
type Extraction struct {
	PlanName      string           `json:"plan_name"`
	EffectiveDate string           `json:"effective_date"`
	Entries       []ExtractedEntry `json:"entries"`
}
