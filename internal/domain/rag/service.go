package rag

import (
	"context"
	"io"
	"time"

	"github.com/spineai/ragproxy/internal/prompt"
	"github.com/spineai/ragproxy/internal/ragflow"
	"github.com/spineai/ragproxy/pkg/fhirtext"
)

// Retrieval depth per route. Spine consultations pull a deeper evidence set
// than plain queries.
const (
	queryTopK = 5
	spineTopK = 10
)

// Service composes domain prompts and runs them against the retrieval
// backend.
type Service struct {
	client *ragflow.QueryClient
}

// NewService creates a new Service around the given backend client.
func NewService(client *ragflow.QueryClient) *Service {
	return &Service{client: client}
}

// QueryResult is the response shape of a medical query.
type QueryResult struct {
	Answer     string        `json:"answer"`
	Sources    []interface{} `json:"sources"`
	Confidence float64       `json:"confidence"`
	Timestamp  string        `json:"timestamp"`
}

// AnalysisResult is the response shape of a FHIR bundle analysis.
type AnalysisResult struct {
	Analysis       string        `json:"analysis"`
	Sources        []interface{} `json:"sources"`
	PatientSummary string        `json:"patient_summary"`
	Timestamp      string        `json:"timestamp"`
}

// RecommendationResult is the response shape of a spine consultation.
type RecommendationResult struct {
	Recommendations string        `json:"recommendations"`
	EvidenceSources []interface{} `json:"evidence_sources"`
	ConfidenceScore float64       `json:"confidence_score"`
	Timestamp       string        `json:"timestamp"`
}

// Query enriches a free-text question with optional patient context and runs
// it against the knowledge base.
func (s *Service) Query(ctx context.Context, query string, pc prompt.PatientContext, kbID string) (*QueryResult, error) {
	resp, err := s.client.Query(ctx, prompt.Query(query, pc), kbID, queryTopK)
	if err != nil {
		return nil, err
	}
	return &QueryResult{
		Answer:     resp.Answer,
		Sources:    sources(resp.Sources),
		Confidence: resp.Confidence,
		Timestamp:  timestamp(),
	}, nil
}

// AnalyzeFHIR summarizes a set of FHIR resources into plain text and asks
// the knowledge base the given question about them.
func (s *Service) AnalyzeFHIR(ctx context.Context, resources []map[string]interface{}, question, kbID string) (*AnalysisResult, error) {
	summary := fhirtext.Summarize(resources)
	resp, err := s.client.Query(ctx, prompt.FHIRAnalysis(summary, question), kbID, queryTopK)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		Analysis:       resp.Answer,
		Sources:        sources(resp.Sources),
		PatientSummary: summary,
		Timestamp:      timestamp(),
	}, nil
}

// SpineRecommendation builds a spine consultation prompt from structured
// patient data and retrieves evidence-backed recommendations.
func (s *Service) SpineRecommendation(ctx context.Context, patient prompt.SpinePatient, kbID string) (*RecommendationResult, error) {
	resp, err := s.client.Query(ctx, prompt.SpineConsultation(patient), kbID, spineTopK)
	if err != nil {
		return nil, err
	}
	return &RecommendationResult{
		Recommendations: resp.Answer,
		EvidenceSources: sources(resp.Sources),
		ConfidenceScore: resp.Confidence,
		Timestamp:       timestamp(),
	}, nil
}

// CreateKnowledgeBase relays a knowledge base creation request verbatim and
// returns the upstream status and body.
func (s *Service) CreateKnowledgeBase(ctx context.Context, body []byte) (int, []byte, error) {
	return s.client.Forward(ctx, "/knowledge_base", body)
}

// UploadDocument streams a document into the given knowledge base and
// returns the upstream status and body.
func (s *Service) UploadDocument(ctx context.Context, kbID, filename, contentType string, file io.Reader) (int, []byte, error) {
	return s.client.ForwardMultipart(ctx, "/knowledge_base/"+kbID+"/documents", filename, contentType, file)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// sources never relays null; an absent list becomes an empty one.
func sources(s []interface{}) []interface{} {
	if s == nil {
		return []interface{}{}
	}
	return s
}
