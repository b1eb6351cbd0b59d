package rules

import (
	"time"

	"github.com/google/uuid"
)

// CheckType identifies one of the four safety checks the engine runs.
type CheckType string

const (
	CheckAllergy          CheckType = "ALLERGY"
	CheckDrugInteraction  CheckType = "DRUG_INTERACTION"
	CheckDoseRange        CheckType = "DOSE_RANGE"
	CheckDuplicateTherapy CheckType = "DUPLICATE_THERAPY"
)

// CheckStatus is the outcome of a single safety check.
type CheckStatus string

const (
	StatusPass    CheckStatus = "PASS"
	StatusWarning CheckStatus = "WARNING"
	StatusFail    CheckStatus = "FAIL"
)

// OverallStatus aggregates all check outcomes for one medication.
type OverallStatus string

const (
	OverallPass    OverallStatus = "PASS"
	OverallWarning OverallStatus = "WARNING"
	OverallBlocked OverallStatus = "BLOCKED"
)

// Interaction severities. Anything not SEVERE or MODERATE is treated as MILD.
const (
	SeveritySevere   = "SEVERE"
	SeverityModerate = "MODERATE"
	SeverityMild     = "MILD"
)

// DrugInteraction maps to the drug_interaction table. A pair matches
// regardless of which side the proposed drug appears on.
type DrugInteraction struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DrugA       string    `db:"drug_a" json:"drug_a"`
	DrugB       string    `db:"drug_b" json:"drug_b"`
	Severity    string    `db:"severity" json:"severity"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DoseRange maps to the dose_range table. Doses are normalized to mg.
type DoseRange struct {
	ID             uuid.UUID `db:"id" json:"id"`
	MedicationName string    `db:"medication_name" json:"medication_name"`
	MinDoseMg      float64   `db:"min_dose_mg" json:"min_dose_mg"`
	MaxDoseMg      float64   `db:"max_dose_mg" json:"max_dose_mg"`
	Unit           string    `db:"unit" json:"unit"`
	Frequency      string    `db:"frequency" json:"frequency"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Input carries everything the engine needs for one medication. The
// engine performs no I/O; interaction and dose-range references are
// supplied by the caller.
type Input struct {
	MedicationName     string            `json:"medication_name"`
	Dosage             string            `json:"dosage"`
	PatientAllergies   []string          `json:"patient_allergies"`
	CurrentMedications []string          `json:"current_medications"`
	DrugInteractions   []DrugInteraction `json:"drug_interactions"`
	DoseRanges         []DoseRange       `json:"dose_ranges"`
}

// SafetyCheckResult is the immutable outcome of one check invocation.
type SafetyCheckResult struct {
	CheckType      CheckType   `json:"check_type"`
	Status         CheckStatus `json:"status"`
	MedicationName string      `json:"medication_name"`
	Details        string      `json:"details"`
	Blocking       bool        `json:"blocking"`
	RelatedDrug    string      `json:"related_drug,omitempty"`
	Severity       string      `json:"severity,omitempty"`
}

// Output is the full verdict for one medication. HasBlockingFailure is
// always the OR of the contained checks' Blocking flags.
type Output struct {
	MedicationName     string              `json:"medication_name"`
	Checks             []SafetyCheckResult `json:"checks"`
	HasBlockingFailure bool                `json:"has_blocking_failure"`
	OverallStatus      OverallStatus       `json:"overall_status"`
}
