package prompt

import (
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestQuery_AllFields(t *testing.T) {
	got := Query("What treatment options are recommended?", PatientContext{
		PatientAge:      intPtr(65),
		Diagnosis:       "lumbar spinal stenosis",
		ImagingFindings: "L4-L5 narrowing",
		MedicalHistory:  "hypertension",
	})
	for _, want := range []string{
		"- Age: 65",
		"- Diagnosis: lumbar spinal stenosis",
		"- Imaging Findings: L4-L5 narrowing",
		"- Medical History: hypertension",
		"Query: What treatment options are recommended?",
		"1. Treatment options (conservative vs surgical)",
		"4. Evidence from clinical literature",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected prompt to contain %q\ngot:\n%s", want, got)
		}
	}
}

func TestQuery_Defaults(t *testing.T) {
	got := Query("q", PatientContext{})
	if strings.Count(got, NotSpecified) != 4 {
		t.Errorf("expected 4 Not specified placeholders, got %d in:\n%s",
			strings.Count(got, NotSpecified), got)
	}
}

func TestFHIRAnalysis(t *testing.T) {
	got := FHIRAnalysis("Condition: stenosis", "Is surgery indicated?")
	if !strings.Contains(got, "Patient Health Record Summary:\nCondition: stenosis") {
		t.Errorf("summary not interpolated:\n%s", got)
	}
	if !strings.Contains(got, "Clinical Question: Is surgery indicated?") {
		t.Errorf("question not interpolated:\n%s", got)
	}
	if !strings.Contains(got, "1. Analysis of the patient's condition") {
		t.Errorf("instruction list missing:\n%s", got)
	}
}

func TestFHIRAnalysis_DefaultQuestion(t *testing.T) {
	got := FHIRAnalysis("summary", "")
	if !strings.Contains(got, "Clinical Question: "+DefaultFHIRQuestion) {
		t.Errorf("expected default question in:\n%s", got)
	}
}

func TestSpineConsultation(t *testing.T) {
	got := SpineConsultation(SpinePatient{
		Age:            intPtr(65),
		Diagnosis:      "lumbar spinal stenosis",
		Symptoms:       []string{"leg pain", "numbness"},
		MedicalHistory: MedicalHistory{Summary: "diabetes, smoker"},
		Imaging: map[string]interface{}{
			"MRI":  "severe central stenosis L4-L5",
			"Xray": "degenerative changes",
		},
	})
	for _, want := range []string{
		"- Age: 65",
		"- Primary Diagnosis: lumbar spinal stenosis",
		"- Symptoms: leg pain, numbness",
		"- Relevant Medical History: diabetes, smoker",
		"MRI: severe central stenosis L4-L5",
		"Xray: degenerative changes",
		"6. Relevant clinical studies and meta-analyses",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected prompt to contain %q\ngot:\n%s", want, got)
		}
	}
}

func TestSpineConsultation_Defaults(t *testing.T) {
	got := SpineConsultation(SpinePatient{})
	if !strings.Contains(got, "- Symptoms: "+NotSpecified) {
		t.Errorf("expected symptom default in:\n%s", got)
	}
	if !strings.Contains(got, "Imaging Findings:\nNo imaging data available") {
		t.Errorf("expected imaging sentinel in:\n%s", got)
	}
}

func TestSpineConsultation_ImagingOrderDeterministic(t *testing.T) {
	p := SpinePatient{Imaging: map[string]interface{}{"CT": "c", "MRI": "m", "Xray": "x"}}
	first := SpineConsultation(p)
	for i := 0; i < 10; i++ {
		if SpineConsultation(p) != first {
			t.Fatal("imaging block order not deterministic")
		}
	}
	if strings.Index(first, "CT: c") > strings.Index(first, "MRI: m") {
		t.Errorf("imaging modalities not sorted:\n%s", first)
	}
}
