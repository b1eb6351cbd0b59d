// Package ai provides the model-backed recommendation layer. The
// Recommender interface is the seam the prescription orchestrator
// depends on; Client is the Gemini-backed implementation.
package ai

import "context"

// Recommender generates prescription candidates and patient-facing
// instructions from structured clinical context.
type Recommender interface {
	GenerateRecommendations(ctx context.Context, rc RecommendationContext) (*RecommendationOutput, error)
	GeneratePatientInstructions(ctx context.Context, in InstructionsInput) (*PatientInstructions, error)
	// Model identifies the backing model, echoed in responses.
	Model() string
}

// RecommendationContext is the structured clinical context sent to the
// model when asking for prescription candidates.
type RecommendationContext struct {
	VisitReason        string                   `json:"visit_reason"`
	VisitNotes         string                   `json:"visit_notes"`
	Symptoms           []string                 `json:"symptoms"`
	Allergies          []string                 `json:"allergies"`
	CurrentMedications []string                 `json:"current_medications"`
	MedicalHistory     string                   `json:"medical_history"`
	InsurancePlanName  string                   `json:"insurance_plan_name"`
	FormularyData      []map[string]interface{} `json:"formulary_data"`
}

// CandidateAlternative is a cheaper or safer option the model suggested
// alongside a candidate.
type CandidateAlternative struct {
	Medication     string   `json:"medication"`
	Reason         string   `json:"reason"`
	EstimatedCopay *float64 `json:"estimated_copay,omitempty"`
}

// Candidate is one ranked prescription recommendation from the model.
type Candidate struct {
	Medication        string                 `json:"medication"`
	Dosage            string                 `json:"dosage"`
	Frequency         string                 `json:"frequency"`
	Duration          string                 `json:"duration"`
	Route             string                 `json:"route"`
	Rationale         string                 `json:"rationale"`
	FormularyStatus   string                 `json:"formulary_status"`
	EstimatedCopay    *float64               `json:"estimated_copay,omitempty"`
	RequiresPriorAuth bool                   `json:"requires_prior_auth"`
	Alternatives      []CandidateAlternative `json:"alternatives"`
}

// RecommendationOutput is the full structured model response.
type RecommendationOutput struct {
	Recommendations   []Candidate `json:"recommendations"`
	ClinicalReasoning string      `json:"clinical_reasoning"`
}

// InstructionsInput describes the approved drug a patient pack is
// generated for.
type InstructionsInput struct {
	Medication         string   `json:"medication"`
	Dosage             string   `json:"dosage"`
	Frequency          string   `json:"frequency"`
	Duration           string   `json:"duration"`
	PatientAllergies   []string `json:"patient_allergies"`
	CurrentMedications []string `json:"current_medications"`
	Language           string   `json:"language"`
}

// PatientInstructions is the plain-language medication guide returned
// for the patient pack.
type PatientInstructions struct {
	MedicationName      string   `json:"medication_name"`
	Purpose             string   `json:"purpose"`
	HowToTake           string   `json:"how_to_take"`
	WhatToAvoid         []string `json:"what_to_avoid"`
	SideEffects         []string `json:"side_effects"`
	WhenToSeekHelp      []string `json:"when_to_seek_help"`
	StorageInstructions string   `json:"storage_instructions"`
	Language            string   `json:"language"`
}
