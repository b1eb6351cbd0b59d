package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Status is the prescription lifecycle state. Transitions go
// recommended → approved or recommended → rejected; both end states are
// terminal.
type Status string

const (
	StatusRecommended Status = "recommended"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// RuleOutcome records whether the safety evaluation blocked one
// recommended medication. Stored with the prescription so approval can
// re-check without re-running the engine.
type RuleOutcome struct {
	Medication string `json:"medication"`
	Blocked    bool   `json:"blocked"`
}

// Prescription is the persisted recommendation set for one visit.
type Prescription struct {
	ID              uuid.UUID            `db:"id" json:"id"`
	VisitID         uuid.UUID            `db:"visit_id" json:"visit_id"`
	PatientID       uuid.UUID            `db:"patient_id" json:"patient_id"`
	Status          Status               `db:"status" json:"status"`
	Items           []RecommendationItem `db:"items" json:"items"`
	RulesResults    []RuleOutcome        `db:"rules_results" json:"rules_results"`
	RejectionReason string               `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time            `db:"created_at" json:"created_at"`
	ApprovedAt      *time.Time           `db:"approved_at" json:"approved_at,omitempty"`
}

// ---------------------------------------------------------------------------
// Recommendation DTOs
// ---------------------------------------------------------------------------

// RecommendationRequest is the clinical context a recommendation run
// starts from.
type RecommendationRequest struct {
	VisitID            uuid.UUID `json:"visit_id"`
	PatientID          uuid.UUID `json:"patient_id"`
	ChiefComplaint     string    `json:"chief_complaint"`
	CurrentMedications []string  `json:"current_medications"`
	Allergies          []string  `json:"allergies"`
	Notes              string    `json:"notes,omitempty"`
}

// RecommendedDrug is one candidate annotated with coverage data.
type RecommendedDrug struct {
	DrugName          string   `json:"drug_name"`
	GenericName       string   `json:"generic_name"`
	Dosage            string   `json:"dosage"`
	Frequency         string   `json:"frequency"`
	Duration          string   `json:"duration"`
	Route             string   `json:"route"`
	Rationale         string   `json:"rationale"`
	Tier              int      `json:"tier,omitempty"`
	EstimatedCopay    *float64 `json:"estimated_copay,omitempty"`
	IsCovered         bool     `json:"is_covered"`
	RequiresPriorAuth bool     `json:"requires_prior_auth"`
}

// AlternativeDrug is a cheaper covered substitute suggested alongside a
// candidate.
type AlternativeDrug struct {
	DrugName       string   `json:"drug_name"`
	GenericName    string   `json:"generic_name"`
	Dosage         string   `json:"dosage"`
	Reason         string   `json:"reason"`
	Tier           int      `json:"tier,omitempty"`
	EstimatedCopay *float64 `json:"estimated_copay,omitempty"`
}

// RecommendationItem is one candidate with its alternatives and the
// safety warnings raised against it.
type RecommendationItem struct {
	Primary      RecommendedDrug   `json:"primary"`
	Alternatives []AlternativeDrug `json:"alternatives"`
	Warnings     []string          `json:"warnings"`
}

// RecommendationResponse is the full annotated recommendation set.
type RecommendationResponse struct {
	VisitID          uuid.UUID            `json:"visit_id"`
	PrescriptionID   uuid.UUID            `json:"prescription_id"`
	Recommendations  []RecommendationItem `json:"recommendations"`
	GeminiModel      string               `json:"gemini_model"`
	ReasoningSummary string               `json:"reasoning_summary,omitempty"`
}

// ---------------------------------------------------------------------------
// Validation DTOs
// ---------------------------------------------------------------------------

// ProposedDrug is a clinician-entered drug submitted for deterministic
// validation (no AI involved).
type ProposedDrug struct {
	DrugName    string `json:"drug_name"`
	GenericName string `json:"generic_name"`
	Dosage      string `json:"dosage"`
	Frequency   string `json:"frequency"`
	Duration    string `json:"duration"`
	Route       string `json:"route"`
}

type ValidationRequest struct {
	VisitID       uuid.UUID      `json:"visit_id"`
	PatientID     uuid.UUID      `json:"patient_id"`
	ProposedDrugs []ProposedDrug `json:"proposed_drugs"`
}

// ValidationFlag is one non-passing safety check surfaced to the caller.
type ValidationFlag struct {
	Rule        string `json:"rule"`
	Severity    string `json:"severity"`
	Drug        string `json:"drug"`
	Message     string `json:"message"`
	RelatedDrug string `json:"related_drug,omitempty"`
}

type DrugValidationResult struct {
	DrugName          string           `json:"drug_name"`
	Passed            bool             `json:"passed"`
	Tier              int              `json:"tier,omitempty"`
	Copay             *float64         `json:"copay,omitempty"`
	IsCovered         bool             `json:"is_covered"`
	RequiresPriorAuth bool             `json:"requires_prior_auth"`
	Flags             []ValidationFlag `json:"flags"`
}

type ValidationResponse struct {
	VisitID      uuid.UUID              `json:"visit_id"`
	PatientID    uuid.UUID              `json:"patient_id"`
	AllPassed    bool                   `json:"all_passed"`
	Results      []DrugValidationResult `json:"results"`
	Blocked      bool                   `json:"blocked"`
	BlockReasons []string               `json:"block_reasons"`
}

// ---------------------------------------------------------------------------
// Approval / rejection DTOs
// ---------------------------------------------------------------------------

type ApprovalRequest struct {
	PrescriptionID        uuid.UUID `json:"prescription_id"`
	ConfirmedSafetyReview bool      `json:"confirmed_safety_review"`
	Comment               string    `json:"comment,omitempty"`
}

type RejectionRequest struct {
	PrescriptionID uuid.UUID `json:"prescription_id"`
	Reason         string    `json:"reason"`
}
