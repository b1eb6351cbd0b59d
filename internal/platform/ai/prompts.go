package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func buildRecommendationPrompt(rc RecommendationContext) string {
	formularyJSON, _ := json.Marshal(rc.FormularyData)

	var b strings.Builder
	b.WriteString("You are a clinical decision support assistant. Recommend 1-3 ranked prescription options for the visit below.\n\n")
	fmt.Fprintf(&b, "Visit reason: %s\n", rc.VisitReason)
	if rc.VisitNotes != "" {
		fmt.Fprintf(&b, "Visit notes: %s\n", rc.VisitNotes)
	}
	fmt.Fprintf(&b, "Symptoms: %s\n", joinOrNone(rc.Symptoms))
	fmt.Fprintf(&b, "Known allergies: %s\n", joinOrNone(rc.Allergies))
	fmt.Fprintf(&b, "Current medications: %s\n", joinOrNone(rc.CurrentMedications))
	if rc.MedicalHistory != "" {
		fmt.Fprintf(&b, "Medical history: %s\n", rc.MedicalHistory)
	}
	if rc.InsurancePlanName != "" {
		fmt.Fprintf(&b, "Insurance plan: %s\n", rc.InsurancePlanName)
	}
	fmt.Fprintf(&b, "Formulary data: %s\n\n", formularyJSON)
	b.WriteString(`Respond with JSON only, matching this shape:
{
  "recommendations": [
    {
      "medication": "", "dosage": "", "frequency": "", "duration": "",
      "route": "oral", "rationale": "",
      "formulary_status": "COVERED_PREFERRED|COVERED_NON_PREFERRED|NOT_COVERED",
      "estimated_copay": 0, "requires_prior_auth": false,
      "alternatives": [{"medication": "", "reason": "", "estimated_copay": 0}]
    }
  ],
  "clinical_reasoning": ""
}
Prefer covered, low-tier drugs. Never recommend a drug the patient is allergic to.`)
	return b.String()
}

func buildPatientInstructionsPrompt(in InstructionsInput) string {
	var b strings.Builder
	b.WriteString("Write plain-language medication instructions for a patient.\n\n")
	fmt.Fprintf(&b, "Medication: %s\nDosage: %s\nFrequency: %s\nDuration: %s\n",
		in.Medication, in.Dosage, in.Frequency, in.Duration)
	fmt.Fprintf(&b, "Patient allergies: %s\n", joinOrNone(in.PatientAllergies))
	fmt.Fprintf(&b, "Other medications: %s\n", joinOrNone(in.CurrentMedications))
	lang := in.Language
	if lang == "" {
		lang = "en"
	}
	fmt.Fprintf(&b, "Output language: %s\n\n", lang)
	b.WriteString(`Respond with JSON only, matching this shape:
{
  "medication_name": "", "purpose": "", "how_to_take": "",
  "what_to_avoid": [], "side_effects": [], "when_to_seek_help": [],
  "storage_instructions": "", "language": ""
}
Use a 6th-grade reading level. Do not include medical jargon without explaining it.`)
	return b.String()
}
