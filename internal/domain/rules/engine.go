// Package rules implements the deterministic prescription safety engine.
// It runs after the AI recommender returns candidates and before anything
// is shown to the clinician. No I/O, no AI calls; structured data only.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Engine evaluates proposed medications against patient allergies,
// current medications, dose-range references, and interaction records.
// Evaluate is pure and safe for concurrent use.
type Engine struct {
	log zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Evaluate runs all four checks, always in the same order, and derives
// the overall status as BLOCKED > WARNING > PASS. Missing reference data
// degrades to PASS or WARNING, never to a false block.
func (e *Engine) Evaluate(in Input) Output {
	checks := make([]SafetyCheckResult, 0, 4)

	checks = append(checks, checkAllergies(in.MedicationName, in.PatientAllergies))
	checks = append(checks, checkInteractions(in.MedicationName, in.CurrentMedications, in.DrugInteractions)...)
	checks = append(checks, checkDoseRange(in.MedicationName, in.Dosage, in.DoseRanges))
	checks = append(checks, checkDuplicateTherapy(in.MedicationName, in.CurrentMedications))

	hasBlocking := false
	hasWarning := false
	for _, c := range checks {
		if c.Blocking {
			hasBlocking = true
		}
		if c.Status == StatusWarning {
			hasWarning = true
		}
	}

	overall := OverallPass
	switch {
	case hasBlocking:
		overall = OverallBlocked
	case hasWarning:
		overall = OverallWarning
	}

	e.log.Info().
		Str("medication", in.MedicationName).
		Str("overall", string(overall)).
		Int("checks", len(checks)).
		Bool("blocking", hasBlocking).
		Msg("rules engine evaluation")

	return Output{
		MedicationName:     in.MedicationName,
		Checks:             checks,
		HasBlockingFailure: hasBlocking,
		OverallStatus:      overall,
	}
}

// -- Allergy check --

// allergyMatches reports whether the proposed medication conflicts with
// the allergy by substring, class-name membership, or shared drug class.
func allergyMatches(medication, allergy string) bool {
	med := normalizeDrugName(medication)
	al := normalizeDrugName(allergy)

	if strings.Contains(med, al) || strings.Contains(al, med) {
		return true
	}
	if members, ok := classMembers[al]; ok && members[med] {
		return true
	}
	if _, ok := sharedClass(med, al); ok {
		return true
	}
	return false
}

func checkAllergies(medication string, allergies []string) SafetyCheckResult {
	for _, allergy := range allergies {
		if allergyMatches(medication, allergy) {
			return SafetyCheckResult{
				CheckType:      CheckAllergy,
				Status:         StatusFail,
				MedicationName: medication,
				Details:        fmt.Sprintf("Patient is allergic to '%s'; '%s' is contraindicated", allergy, medication),
				Blocking:       true,
				RelatedDrug:    allergy,
			}
		}
	}
	return SafetyCheckResult{
		CheckType:      CheckAllergy,
		Status:         StatusPass,
		MedicationName: medication,
		Details:        "No allergy conflict detected",
	}
}

// -- Drug interaction check --

func checkInteractions(medication string, currentMeds []string, interactions []DrugInteraction) []SafetyCheckResult {
	var results []SafetyCheckResult
	med := normalizeDrugName(medication)

	for _, current := range currentMeds {
		cur := normalizeDrugName(current)
		for _, ix := range interactions {
			a, b := normalizeDrugName(ix.DrugA), normalizeDrugName(ix.DrugB)
			if !((a == med && b == cur) || (a == cur && b == med)) {
				continue
			}

			severity := strings.ToUpper(ix.Severity)
			switch severity {
			case SeveritySevere:
				results = append(results, SafetyCheckResult{
					CheckType:      CheckDrugInteraction,
					Status:         StatusFail,
					MedicationName: medication,
					Details:        fmt.Sprintf("SEVERE interaction: %s + %s. %s", medication, current, ix.Description),
					Blocking:       true,
					RelatedDrug:    current,
					Severity:       severity,
				})
			case SeverityModerate:
				results = append(results, SafetyCheckResult{
					CheckType:      CheckDrugInteraction,
					Status:         StatusWarning,
					MedicationName: medication,
					Details:        fmt.Sprintf("MODERATE interaction: %s + %s. %s", medication, current, ix.Description),
					RelatedDrug:    current,
					Severity:       severity,
				})
			default: // MILD or unrecognized
				results = append(results, SafetyCheckResult{
					CheckType:      CheckDrugInteraction,
					Status:         StatusWarning,
					MedicationName: medication,
					Details:        fmt.Sprintf("MILD interaction: %s + %s. %s", medication, current, ix.Description),
					RelatedDrug:    current,
					Severity:       severity,
				})
			}
		}
	}

	if len(results) == 0 {
		results = append(results, SafetyCheckResult{
			CheckType:      CheckDrugInteraction,
			Status:         StatusPass,
			MedicationName: medication,
			Details:        "No drug interactions found",
		})
	}
	return results
}

// -- Dose range check --

var doseRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|g|mcg|µg|ug)`)

var unitToMg = map[string]float64{
	"mg":  1.0,
	"g":   1000.0,
	"mcg": 0.001,
	"µg":  0.001,
	"ug":  0.001,
}

// parseDoseMg extracts a dose in mg from strings like "500mg", "0.5g",
// "250 mcg". The second return is false when no dose can be parsed.
func parseDoseMg(dosage string) (float64, bool) {
	m := doseRe.FindStringSubmatch(dosage)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	factor, ok := unitToMg[strings.ToLower(m[2])]
	if !ok {
		factor = 1.0
	}
	return value * factor, true
}

func checkDoseRange(medication, dosage string, ranges []DoseRange) SafetyCheckResult {
	doseMg, ok := parseDoseMg(dosage)
	if !ok {
		return SafetyCheckResult{
			CheckType:      CheckDoseRange,
			Status:         StatusWarning,
			MedicationName: medication,
			Details:        fmt.Sprintf("Could not parse dosage '%s'; manual review recommended", dosage),
		}
	}

	med := normalizeDrugName(medication)
	var matched *DoseRange
	for i := range ranges {
		if normalizeDrugName(ranges[i].MedicationName) == med {
			matched = &ranges[i]
			break
		}
	}

	if matched == nil {
		return SafetyCheckResult{
			CheckType:      CheckDoseRange,
			Status:         StatusPass,
			MedicationName: medication,
			Details:        fmt.Sprintf("No dose range reference found for '%s'; skipping check", medication),
		}
	}

	switch {
	case doseMg > matched.MaxDoseMg:
		return SafetyCheckResult{
			CheckType:      CheckDoseRange,
			Status:         StatusFail,
			MedicationName: medication,
			Details:        fmt.Sprintf("Dose %gmg exceeds maximum %gmg for %s", doseMg, matched.MaxDoseMg, medication),
			Blocking:       true,
		}
	case doseMg < matched.MinDoseMg:
		return SafetyCheckResult{
			CheckType:      CheckDoseRange,
			Status:         StatusWarning,
			MedicationName: medication,
			Details:        fmt.Sprintf("Dose %gmg is below minimum %gmg for %s; may be sub-therapeutic", doseMg, matched.MinDoseMg, medication),
		}
	default:
		return SafetyCheckResult{
			CheckType:      CheckDoseRange,
			Status:         StatusPass,
			MedicationName: medication,
			Details:        fmt.Sprintf("Dose %gmg is within range (%g-%gmg)", doseMg, matched.MinDoseMg, matched.MaxDoseMg),
		}
	}
}

// -- Duplicate therapy check --

func checkDuplicateTherapy(medication string, currentMeds []string) SafetyCheckResult {
	med := normalizeDrugName(medication)

	for _, current := range currentMeds {
		cur := normalizeDrugName(current)

		if cur == med {
			return SafetyCheckResult{
				CheckType:      CheckDuplicateTherapy,
				Status:         StatusWarning,
				MedicationName: medication,
				Details:        fmt.Sprintf("Patient already taking %s; duplicate prescription", current),
				RelatedDrug:    current,
			}
		}

		if class, ok := sharedClass(med, cur); ok {
			return SafetyCheckResult{
				CheckType:      CheckDuplicateTherapy,
				Status:         StatusWarning,
				MedicationName: medication,
				Details:        fmt.Sprintf("Patient already taking %s (same class: %s); possible duplicate therapy", current, class),
				RelatedDrug:    current,
			}
		}
	}

	return SafetyCheckResult{
		CheckType:      CheckDuplicateTherapy,
		Status:         StatusPass,
		MedicationName: medication,
		Details:        "No duplicate therapy detected",
	}
}
