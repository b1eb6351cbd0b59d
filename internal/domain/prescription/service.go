package prescription

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pharmasense/pharmasense/internal/apperr"
	"github.com/pharmasense/pharmasense/internal/domain/formulary"
	"github.com/pharmasense/pharmasense/internal/domain/rules"
	"github.com/pharmasense/pharmasense/internal/platform/ai"
	"github.com/pharmasense/pharmasense/internal/platform/analytics"
	"github.com/pharmasense/pharmasense/internal/platform/metrics"
)

const maxAlternatives = 3

// ReferenceData is the knowledge-table snapshot a recommendation or
// validation run evaluates against. The service consumes it as input;
// callers (handlers) decide where it comes from.
type ReferenceData struct {
	Formulary        []formulary.Entry
	DrugInteractions []rules.DrugInteraction
	DoseRanges       []rules.DoseRange
	MedicalHistory   string
	PlanName         string
}

// ApprovalContext carries the identity fields stamped onto the receipt
// at approval time.
type ApprovalContext struct {
	PatientName   string
	ClinicianName string
	ClinicianID   uuid.UUID
	PlanName      string
	MemberID      string
}

// PatientPackOptions parameterise patient-instruction generation.
type PatientPackOptions struct {
	PatientAllergies   []string
	CurrentMedications []string
	Language           string
}

// Service is the central orchestrator for the prescription lifecycle.
// It ties the AI layer to the deterministic safety layer and the
// coverage layer, and owns the recommended → approved/rejected state
// machine.
type Service struct {
	recommender ai.Recommender
	rules       *rules.Engine
	formulary   *formulary.Service
	analytics   analytics.Emitter
	store       Store
	log         zerolog.Logger

	// transitions serializes status transitions per prescription key so
	// a concurrent approve and reject cannot both read "recommended" and
	// both commit. Striped so the lock table stays fixed-size.
	transitions [transitionStripes]sync.Mutex
}

const transitionStripes = 32

func (s *Service) transitionLock(id uuid.UUID) *sync.Mutex {
	return &s.transitions[int(id[0])%transitionStripes]
}

func NewService(
	recommender ai.Recommender,
	engine *rules.Engine,
	formularySvc *formulary.Service,
	emitter analytics.Emitter,
	store Store,
	log zerolog.Logger,
) *Service {
	return &Service{
		recommender: recommender,
		rules:       engine,
		formulary:   formularySvc,
		analytics:   emitter,
		store:       store,
		log:         log,
	}
}

// GenerateRecommendations runs the full pipeline: AI candidates, then
// per-candidate safety evaluation and coverage lookup, persistence, and
// analytics. Blocked candidates stay in the response so the clinician
// sees why they were blocked; approval is where blocking is enforced.
func (s *Service) GenerateRecommendations(ctx context.Context, req RecommendationRequest, refs ReferenceData) (*RecommendationResponse, error) {
	formularyData := make([]map[string]interface{}, 0, len(refs.Formulary))
	for _, e := range refs.Formulary {
		formularyData = append(formularyData, map[string]interface{}{
			"drug_name":           e.DrugName,
			"generic_name":        e.GenericName,
			"tier":                e.Tier,
			"copay":               e.Copay,
			"is_covered":          e.IsCovered,
			"requires_prior_auth": e.RequiresPriorAuth,
		})
	}

	aiOut, err := s.recommender.GenerateRecommendations(ctx, ai.RecommendationContext{
		VisitReason:        req.ChiefComplaint,
		VisitNotes:         req.Notes,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
		MedicalHistory:     refs.MedicalHistory,
		InsurancePlanName:  refs.PlanName,
		FormularyData:      formularyData,
	})
	if err != nil {
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	var (
		annotated    []RecommendationItem
		rulesResults []RuleOutcome
		blockedCount int
		warningCount int
	)

	for _, candidate := range aiOut.Recommendations {
		rulesOut := s.rules.Evaluate(rules.Input{
			MedicationName:     candidate.Medication,
			Dosage:             candidate.Dosage,
			PatientAllergies:   req.Allergies,
			CurrentMedications: req.CurrentMedications,
			DrugInteractions:   refs.DrugInteractions,
			DoseRanges:         refs.DoseRanges,
		})
		for _, check := range rulesOut.Checks {
			metrics.SafetyChecksTotal.WithLabelValues(string(check.CheckType), string(check.Status)).Inc()
		}

		coverage := s.formulary.LookupCoverage(candidate.Medication, refs.Formulary, formulary.LookupOptions{
			PlanName: refs.PlanName,
		})

		var alts []formulary.AlternativeSuggestion
		if coverage.Status != formulary.StatusCovered {
			alts = s.formulary.FindAlternatives(candidate.Medication, refs.Formulary, maxAlternatives)
		}

		var warnings []string
		for _, check := range rulesOut.Checks {
			if check.Status == rules.StatusFail || check.Status == rules.StatusWarning {
				warnings = append(warnings, check.Details)
			}
		}
		warningCount += len(warnings)

		if rulesOut.HasBlockingFailure {
			blockedCount++
			metrics.PrescriptionsBlockedTotal.Inc()
			for _, check := range rulesOut.Checks {
				if check.Blocking {
					s.analytics.Emit(ctx, analytics.EventOptionBlocked, map[string]interface{}{
						"visitId":    req.VisitID.String(),
						"medication": candidate.Medication,
						"reason":     check.Details,
					})
				}
			}
		}

		route := candidate.Route
		if route == "" {
			route = "oral"
		}
		primary := RecommendedDrug{
			DrugName:          candidate.Medication,
			GenericName:       candidate.Medication,
			Dosage:            candidate.Dosage,
			Frequency:         candidate.Frequency,
			Duration:          candidate.Duration,
			Route:             route,
			Rationale:         candidate.Rationale,
			Tier:              coverage.Tier,
			EstimatedCopay:    coverage.Copay,
			IsCovered:         coverage.IsCovered,
			RequiresPriorAuth: coverage.RequiresPriorAuth,
		}

		altDrugs := make([]AlternativeDrug, 0, len(alts))
		for _, a := range alts {
			copay := a.Copay
			altDrugs = append(altDrugs, AlternativeDrug{
				DrugName:       a.DrugName,
				GenericName:    a.GenericName,
				Reason:         a.Reason,
				Tier:           a.Tier,
				EstimatedCopay: &copay,
			})
		}

		annotated = append(annotated, RecommendationItem{
			Primary:      primary,
			Alternatives: altDrugs,
			Warnings:     warnings,
		})
		rulesResults = append(rulesResults, RuleOutcome{
			Medication: candidate.Medication,
			Blocked:    rulesOut.HasBlockingFailure,
		})
	}

	rx := &Prescription{
		VisitID:      req.VisitID,
		PatientID:    req.PatientID,
		Status:       StatusRecommended,
		Items:        annotated,
		RulesResults: rulesResults,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.SavePrescription(ctx, rx); err != nil {
		return nil, fmt.Errorf("persist prescription: %w", err)
	}

	s.analytics.Emit(ctx, analytics.EventRecommendationGenerated, map[string]interface{}{
		"visitId":      req.VisitID.String(),
		"totalOptions": len(annotated),
		"blockedCount": blockedCount,
		"warningCount": warningCount,
	})

	s.log.Info().
		Str("visit_id", req.VisitID.String()).
		Str("prescription_id", rx.ID.String()).
		Int("options", len(annotated)).
		Int("blocked", blockedCount).
		Msg("recommendations generated")

	return &RecommendationResponse{
		VisitID:          req.VisitID,
		PrescriptionID:   rx.ID,
		Recommendations:  annotated,
		GeminiModel:      s.recommender.Model(),
		ReasoningSummary: aiOut.ClinicalReasoning,
	}, nil
}

// ValidatePrescriptions evaluates clinician-entered drugs against the
// safety rules and formulary. It never calls the AI layer and never
// persists anything.
func (s *Service) ValidatePrescriptions(ctx context.Context, req ValidationRequest, patientAllergies, currentMedications []string, refs ReferenceData) (*ValidationResponse, error) {
	results := make([]DrugValidationResult, 0, len(req.ProposedDrugs))
	allPassed := true
	blocked := false
	var blockReasons []string

	for _, drug := range req.ProposedDrugs {
		rulesOut := s.rules.Evaluate(rules.Input{
			MedicationName:     drug.DrugName,
			Dosage:             drug.Dosage,
			PatientAllergies:   patientAllergies,
			CurrentMedications: currentMedications,
			DrugInteractions:   refs.DrugInteractions,
			DoseRanges:         refs.DoseRanges,
		})

		coverage := s.formulary.LookupCoverage(drug.DrugName, refs.Formulary, formulary.LookupOptions{
			GenericName: drug.GenericName,
			PlanName:    refs.PlanName,
		})

		var flags []ValidationFlag
		for _, check := range rulesOut.Checks {
			if check.Status == rules.StatusPass {
				continue
			}
			severity := string(check.Status)
			if check.Blocking {
				severity = "BLOCKING"
			}
			flags = append(flags, ValidationFlag{
				Rule:        string(check.CheckType),
				Severity:    severity,
				Drug:        check.MedicationName,
				Message:     check.Details,
				RelatedDrug: check.RelatedDrug,
			})
		}

		passed := !rulesOut.HasBlockingFailure
		if !passed {
			allPassed = false
			blocked = true
			for _, check := range rulesOut.Checks {
				if check.Blocking {
					blockReasons = append(blockReasons, check.Details)
				}
			}
		}

		results = append(results, DrugValidationResult{
			DrugName:          drug.DrugName,
			Passed:            passed,
			Tier:              coverage.Tier,
			Copay:             coverage.Copay,
			IsCovered:         coverage.IsCovered,
			RequiresPriorAuth: coverage.RequiresPriorAuth,
			Flags:             flags,
		})
	}

	return &ValidationResponse{
		VisitID:      req.VisitID,
		PatientID:    req.PatientID,
		AllPassed:    allPassed,
		Results:      results,
		Blocked:      blocked,
		BlockReasons: blockReasons,
	}, nil
}

// ApprovePrescription transitions a recommended prescription to
// approved and produces its safety receipt. A stored blocking flag
// always wins over the clinician's attestation.
func (s *Service) ApprovePrescription(ctx context.Context, req ApprovalRequest, actx ApprovalContext) (*Receipt, error) {
	if !req.ConfirmedSafetyReview {
		return nil, apperr.NewValidation("approve_prescription", "confirmed_safety_review",
			"Safety review must be confirmed before approval")
	}

	mu := s.transitionLock(req.PrescriptionID)
	mu.Lock()
	defer mu.Unlock()

	rx, err := s.store.GetPrescription(ctx, req.PrescriptionID)
	if err != nil {
		return nil, err
	}
	if rx.Status != StatusRecommended {
		return nil, apperr.NewValidation("approve_prescription", "status",
			fmt.Sprintf("prescription is already %s", rx.Status))
	}

	for _, rr := range rx.RulesResults {
		if !rr.Blocked {
			continue
		}
		for _, item := range rx.Items {
			if item.Primary.DrugName == rr.Medication && len(item.Warnings) > 0 {
				return nil, apperr.NewSafetyBlock(
					fmt.Sprintf("Cannot approve blocked prescription: %s", item.Warnings[0]))
			}
		}
		return nil, apperr.NewSafetyBlock(
			fmt.Sprintf("Cannot approve blocked prescription: %s failed safety checks", rr.Medication))
	}

	now := time.Now().UTC()
	rx.Status = StatusApproved
	rx.ApprovedAt = &now
	if err := s.store.SavePrescription(ctx, rx); err != nil {
		return nil, fmt.Errorf("persist approval: %w", err)
	}

	receipt := buildReceipt(rx, receiptParty{
		PatientName:   actx.PatientName,
		ClinicianName: actx.ClinicianName,
		PatientID:     rx.PatientID,
		ClinicianID:   actx.ClinicianID,
		VisitID:       rx.VisitID,
		PlanName:      actx.PlanName,
		MemberID:      actx.MemberID,
	})
	if err := s.store.SaveReceipt(ctx, rx.ID, receipt); err != nil {
		return nil, fmt.Errorf("persist receipt: %w", err)
	}

	medication := ""
	if len(receipt.Drugs) > 0 {
		medication = receipt.Drugs[0].DrugName
	}
	s.analytics.Emit(ctx, analytics.EventOptionApproved, map[string]interface{}{
		"prescriptionId": rx.ID.String(),
		"medication":     medication,
		"copay":          receipt.Coverage.TotalCopay,
		"visitId":        receipt.VisitID.String(),
	})

	s.log.Info().Str("prescription_id", rx.ID.String()).Msg("prescription approved")
	return receipt, nil
}

// RejectPrescription transitions a recommended prescription to rejected.
func (s *Service) RejectPrescription(ctx context.Context, req RejectionRequest) error {
	if req.Reason == "" {
		return apperr.NewValidation("reject_prescription", "reason", "reason is required")
	}

	mu := s.transitionLock(req.PrescriptionID)
	mu.Lock()
	defer mu.Unlock()

	rx, err := s.store.GetPrescription(ctx, req.PrescriptionID)
	if err != nil {
		return err
	}
	if rx.Status != StatusRecommended {
		return apperr.NewValidation("reject_prescription", "status",
			fmt.Sprintf("prescription is already %s", rx.Status))
	}

	rx.Status = StatusRejected
	rx.RejectionReason = req.Reason
	if err := s.store.SavePrescription(ctx, rx); err != nil {
		return fmt.Errorf("persist rejection: %w", err)
	}

	s.analytics.Emit(ctx, analytics.EventOptionRejected, map[string]interface{}{
		"prescriptionId": rx.ID.String(),
		"medication":     "",
		"reason":         req.Reason,
	})

	s.log.Info().Str("prescription_id", rx.ID.String()).Msg("prescription rejected")
	return nil
}

// GetReceipt returns the stored receipt for an approved prescription.
func (s *Service) GetReceipt(ctx context.Context, prescriptionID uuid.UUID) (*Receipt, error) {
	return s.store.GetReceipt(ctx, prescriptionID)
}

// ListByVisit returns all prescriptions recorded for a visit.
func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Prescription, error) {
	return s.store.ListByVisit(ctx, visitID)
}

// GetPatientPack generates plain-language instructions for the first
// drug of an approved prescription.
func (s *Service) GetPatientPack(ctx context.Context, prescriptionID uuid.UUID, opts PatientPackOptions) (*ai.PatientInstructions, error) {
	rx, err := s.store.GetPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if rx.Status != StatusApproved {
		return nil, apperr.NewValidation("generate_patient_pack", "status",
			"Patient pack can only be generated for approved prescriptions")
	}
	if len(rx.Items) == 0 {
		return nil, apperr.NewValidation("generate_patient_pack", "items",
			"Prescription has no items")
	}

	language := opts.Language
	if language == "" {
		language = "en"
	}

	primary := rx.Items[0].Primary
	return s.recommender.GeneratePatientInstructions(ctx, ai.InstructionsInput{
		Medication:         primary.DrugName,
		Dosage:             primary.Dosage,
		Frequency:          primary.Frequency,
		Duration:           primary.Duration,
		PatientAllergies:   opts.PatientAllergies,
		CurrentMedications: opts.CurrentMedications,
		Language:           language,
	})
}
