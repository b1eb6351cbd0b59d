// Package formulary implements coverage lookups and cheaper-alternative
// suggestions against plan formulary rows. The service methods are pure:
// callers fetch rows via the repository and pass them in.
package formulary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// LookupOptions carries optional context for a coverage lookup.
type LookupOptions struct {
	GenericName string
	PlanName    string
}

// Service performs stateless formulary operations.
type Service struct {
	log zerolog.Logger
}

func NewService(log zerolog.Logger) *Service {
	return &Service{log: log}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LookupCoverage matches entries by exact drug name first, generic name
// second (both case-insensitive, trimmed); first match wins. No match
// yields UNKNOWN.
func (s *Service) LookupCoverage(medicationName string, entries []Entry, opts LookupOptions) CoverageResult {
	med := normalize(medicationName)
	gen := normalize(opts.GenericName)

	var match *Entry
	for i := range entries {
		if normalize(entries[i].DrugName) == med {
			match = &entries[i]
			break
		}
		if gen != "" && normalize(entries[i].GenericName) == gen {
			match = &entries[i]
			break
		}
	}

	if match == nil {
		return CoverageResult{
			MedicationName: medicationName,
			Status:         StatusUnknown,
			PlanName:       opts.PlanName,
			Notes:          "Medication not found in formulary",
		}
	}

	plan := match.PlanName
	if plan == "" {
		plan = opts.PlanName
	}

	if !match.IsCovered {
		// Copay is meaningless for an uncovered drug; omit it.
		return CoverageResult{
			MedicationName:    medicationName,
			Status:            StatusNotCovered,
			Tier:              match.Tier,
			TierLabel:         TierLabel(match.Tier),
			RequiresPriorAuth: match.RequiresPriorAuth,
			PlanName:          plan,
			Notes:             match.Notes,
		}
	}

	copay := match.Copay
	status := StatusCovered
	if match.RequiresPriorAuth {
		status = StatusPriorAuthRequired
	}

	return CoverageResult{
		MedicationName:    medicationName,
		Status:            status,
		Tier:              match.Tier,
		TierLabel:         TierLabel(match.Tier),
		Copay:             &copay,
		IsCovered:         true,
		RequiresPriorAuth: match.RequiresPriorAuth,
		PlanName:          plan,
		Notes:             match.Notes,
	}
}

// FindAlternatives returns up to maxResults covered entries whose drug
// and generic names both differ from the query, sorted ascending by
// (tier, copay).
func (s *Service) FindAlternatives(medicationName string, entries []Entry, maxResults int) []AlternativeSuggestion {
	med := normalize(medicationName)

	var covered []Entry
	for _, e := range entries {
		if e.IsCovered && normalize(e.DrugName) != med && normalize(e.GenericName) != med {
			covered = append(covered, e)
		}
	}

	sort.SliceStable(covered, func(i, j int) bool {
		if covered[i].Tier != covered[j].Tier {
			return covered[i].Tier < covered[j].Tier
		}
		return covered[i].Copay < covered[j].Copay
	})

	if maxResults > 0 && len(covered) > maxResults {
		covered = covered[:maxResults]
	}

	alternatives := make([]AlternativeSuggestion, 0, len(covered))
	for _, e := range covered {
		label := TierLabel(e.Tier)
		if label == "" {
			label = fmt.Sprintf("Tier %d", e.Tier)
		}
		alternatives = append(alternatives, AlternativeSuggestion{
			DrugName:    e.DrugName,
			GenericName: e.GenericName,
			Tier:        e.Tier,
			Copay:       e.Copay,
			Reason:      fmt.Sprintf("%s, estimated copay $%.2f", label, e.Copay),
		})
	}
	return alternatives
}

// ImportExtractedFormulary maps an upstream extraction payload 1:1 into
// formulary entries. planOverride wins over the extraction's own plan
// name when set. Persistence is the caller's responsibility.
func (s *Service) ImportExtractedFormulary(extraction Extraction, planOverride string) []Entry {
	plan := planOverride
	if plan == "" {
		plan = extraction.PlanName
	}

	entries := make([]Entry, 0, len(extraction.Entries))
	for _, item := range extraction.Entries {
		copay := 0.0
		if item.CopayMin != nil {
			copay = *item.CopayMin
		}
		entries = append(entries, Entry{
			DrugName:            item.DrugName,
			GenericName:         item.GenericName,
			PlanName:            plan,
			Tier:                item.Tier,
			Copay:               copay,
			IsCovered:           true,
			RequiresPriorAuth:   item.RequiresPriorAuth,
			QuantityLimit:       item.QuantityLimit,
			StepTherapyRequired: item.StepTherapyRequired,
			Notes:               item.Notes,
		})
	}

	s.log.Info().
		Int("entries", len(entries)).
		Str("plan", plan).
		Msg("imported formulary extraction")
	return entries
}
