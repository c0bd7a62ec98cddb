// Package prompt builds the enriched natural-language prompts sent to the
// RAG backend. All three templates are deterministic: every interpolated
// field degrades to an explicit "Not specified" placeholder rather than
// leaking an absence marker into the text.
package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NotSpecified is the placeholder substituted for absent patient fields.
const NotSpecified = "Not specified"

// DefaultFHIRQuestion is used when an analyze-fhir caller supplies no question.
const DefaultFHIRQuestion = "Analyze this patient data and provide treatment recommendations"

// PatientContext carries the optional clinical context of a generic query.
type PatientContext struct {
	PatientAge      *int   `json:"patient_age"`
	Diagnosis       string `json:"diagnosis"`
	ImagingFindings string `json:"imaging_findings"`
	MedicalHistory  string `json:"medical_history"`
}

// MedicalHistory is the history block of a spine consultation request.
type MedicalHistory struct {
	Summary string `json:"summary"`
}

// SpinePatient is the patient profile of a spine consultation request.
type SpinePatient struct {
	Age            *int                   `json:"age"`
	Diagnosis      string                 `json:"diagnosis"`
	Symptoms       []string               `json:"symptoms"`
	MedicalHistory MedicalHistory         `json:"medical_history"`
	Imaging        map[string]interface{} `json:"imaging"`
}

const queryTemplate = `
Patient Context:
- Age: %s
- Diagnosis: %s
- Imaging Findings: %s
- Medical History: %s

Query: %s

Please provide evidence-based recommendations including:
1. Treatment options (conservative vs surgical)
2. Success rates and outcomes
3. Risks and contraindications
4. Evidence from clinical literature
`

// Query renders the generic query template.
func Query(query string, ctx PatientContext) string {
	return fmt.Sprintf(queryTemplate,
		ageOrDefault(ctx.PatientAge),
		orDefault(ctx.Diagnosis),
		orDefault(ctx.ImagingFindings),
		orDefault(ctx.MedicalHistory),
		query,
	)
}

const fhirTemplate = `
Patient Health Record Summary:
%s

Clinical Question: %s

Please provide:
1. Analysis of the patient's condition
2. Evidence-based treatment recommendations
3. Potential risks and considerations
4. Relevant clinical guidelines and literature
`

// FHIRAnalysis renders the FHIR-analysis template around a record summary
// (normally the output of fhirtext.Summarize). An empty question falls back
// to DefaultFHIRQuestion.
func FHIRAnalysis(summary, question string) string {
	if question == "" {
		question = DefaultFHIRQuestion
	}
	return fmt.Sprintf(fhirTemplate, summary, question)
}

const spineTemplate = `
Spine Surgery Consultation Request:

Patient Profile:
- Age: %s
- Primary Diagnosis: %s
- Symptoms: %s
- Relevant Medical History: %s

Imaging Findings:
%s

Please provide:
1. Conservative treatment options with expected outcomes
2. Surgical treatment options with evidence-based success rates
3. Risk-benefit analysis for each approach
4. Patient selection criteria from clinical guidelines
5. Recovery timelines and rehabilitation considerations
6. Relevant clinical studies and meta-analyses
`

// SpineConsultation renders the spine-surgery consultation template.
func SpineConsultation(p SpinePatient) string {
	symptoms := p.Symptoms
	if len(symptoms) == 0 {
		symptoms = []string{NotSpecified}
	}
	return fmt.Sprintf(spineTemplate,
		ageOrDefault(p.Age),
		orDefault(p.Diagnosis),
		strings.Join(symptoms, ", "),
		orDefault(p.MedicalHistory.Summary),
		imagingBlock(p.Imaging),
	)
}

// imagingBlock renders one "modality: findings" line per imaging entry,
// sorted by modality for deterministic output.
func imagingBlock(imaging map[string]interface{}) string {
	if len(imaging) == 0 {
		return "No imaging data available"
	}
	modalities := make([]string, 0, len(imaging))
	for m := range imaging {
		modalities = append(modalities, m)
	}
	sort.Strings(modalities)

	lines := make([]string, 0, len(modalities))
	for _, m := range modalities {
		lines = append(lines, fmt.Sprintf("%s: %v", m, imaging[m]))
	}
	return strings.Join(lines, "\n")
}

func orDefault(s string) string {
	if s == "" {
		return NotSpecified
	}
	return s
}

func ageOrDefault(age *int) string {
	if age == nil {
		return NotSpecified
	}
	return strconv.Itoa(*age)
}
