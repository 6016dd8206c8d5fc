// Package gateway exposes the authenticated ingestion API: single-record
// submission, live scan triggering and a health probe.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/simonL79/aria-ops-ai-sub008/internal/database"
	"github.com/simonL79/aria-ops-ai-sub008/internal/oracle"
	"github.com/simonL79/aria-ops-ai-sub008/internal/sanitize"
	"github.com/simonL79/aria-ops-ai-sub008/internal/scan"
	"github.com/simonL79/aria-ops-ai-sub008/internal/score"
)

// ScanRunner triggers a live scan on behalf of an API caller.
type ScanRunner interface {
	Run(ctx context.Context, subject string, opts scan.Options) *scan.Result
}

// Server is the HTTP ingestion gateway.
type Server struct {
	db        *database.DB
	authKey   []byte
	extractor *oracle.Extractor
	scorer    score.Scorer
	runner    ScanRunner
	router    *mux.Router
}

// New creates a gateway server. An empty authKey disables the gateway:
// every request is rejected.
func New(db *database.DB, authKey string, extractor *oracle.Extractor, scorer score.Scorer, runner ScanRunner) *Server {
	s := &Server{
		db:        db,
		authKey:   []byte(authKey),
		extractor: extractor,
		scorer:    scorer,
		runner:    runner,
		router:    mux.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the gateway.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.HandleFunc("/ingest", s.handleIngest).Methods(http.MethodPost)
	s.router.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

type ingestRequest struct {
	Content         string  `json:"content"`
	Platform        string  `json:"platform"`
	URL             string  `json:"url"`
	Severity        string  `json:"severity"`
	ThreatType      *string `json:"threat_type"`
	SourceType      string  `json:"source_type"`
	ConfidenceScore int     `json:"confidence_score"`
	PotentialReach  int     `json:"potential_reach"`
	Test            bool    `json:"test"`
}

type scanRequest struct {
	Subject         string   `json:"subject"`
	Hints           []string `json:"hints"`
	Depth           int      `json:"depth"`
	GenerateProfile *bool    `json:"generateProfile"`
}

// handleIngest processes a single-record submission: authenticate, validate,
// sanitize, extract, score, persist.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !s.authenticate(r) {
		writeUnauthorized(w)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
		return
	}

	var missing []string
	if strings.TrimSpace(req.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(req.Platform) == "" {
		missing = append(missing, "platform")
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"missing required fields: "+strings.Join(missing, ", "))
		return
	}

	payload := s.derive(r.Context(), &req)

	if req.Test {
		log.Printf("Dry-run ingest from %s accepted, nothing persisted", req.Platform)
		writeJSON(w, http.StatusOK, map[string]any{
			"test":    true,
			"success": true,
			"payload": payload,
		})
		return
	}

	inserted, err := s.db.InsertScanResult(payload)
	if err != nil {
		log.Printf("Ingest persistence failed: %v", err)
		writeError(w, http.StatusInternalServerError, "persistence_failed", "could not store the submitted record")
		return
	}
	if inserted != nil {
		log.Printf("Ingested scan result %s from %s", inserted.ID, req.Platform)
	} else {
		log.Printf("Duplicate submission from %s ignored", req.Platform)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"payload":  payload,
		"inserted": inserted,
	})
}

// derive builds the persistable record from a validated submission. The
// caller may pin a severity; otherwise the scorer decides.
func (s *Server) derive(ctx context.Context, req *ingestRequest) *database.ScanResult {
	content := sanitize.Clean(req.Content)

	entities := s.extractor.Extract(ctx, content)
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}

	row := &database.ScanResult{
		Platform:         req.Platform,
		Content:          content,
		URL:              req.URL,
		Severity:         score.SeverityMedium,
		DetectedEntities: names,
		ThreatType:       req.ThreatType,
		SourceType:       "manual",
		Status:           "new",
		ConfidenceScore:  75,
		PotentialReach:   100,
	}
	if primary := oracle.Primary(entities); primary != nil {
		row.RiskEntityName = &primary.Name
		row.RiskEntityType = &primary.Type
	}

	if validSeverity(req.Severity) {
		row.Severity = req.Severity
	} else if assessment, err := s.scorer.Score(ctx, content); err == nil {
		row.Severity = assessment.Severity
		row.Sentiment = assessment.Sentiment
		row.ThreatSummary = assessment.Summary
	}

	if req.SourceType != "" {
		row.SourceType = req.SourceType
	}
	if req.ConfidenceScore > 0 {
		row.ConfidenceScore = req.ConfidenceScore
	}
	if req.PotentialReach > 0 {
		row.PotentialReach = req.PotentialReach
	}
	return row
}

// handleScan triggers a live scan for a subject and waits for the result.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if !s.authenticate(r) {
		writeUnauthorized(w)
		return
	}
	if s.runner == nil {
		writeError(w, http.StatusInternalServerError, "scan_unavailable", "live scanning is not configured")
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing required fields: subject")
		return
	}

	generateProfile := true
	if req.GenerateProfile != nil {
		generateProfile = *req.GenerateProfile
	}

	res := s.runner.Run(r.Context(), req.Subject, scan.Options{
		Hints:           req.Hints,
		Depth:           req.Depth,
		GenerateProfile: generateProfile,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"threat_profile":   res.Profile,
		"scan_results":     len(res.Results),
		"related_entities": res.RelatedEntities,
		"summary":          res.Summary,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// authenticate checks the shared-secret bearer credential in constant time.
// Missing, malformed and wrong credentials are indistinguishable to the
// caller.
func (s *Server) authenticate(r *http.Request) bool {
	if len(s.authKey) == 0 {
		return false
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), s.authKey) == 1
}

func validSeverity(severity string) bool {
	switch severity {
	case score.SeverityLow, score.SeverityMedium, score.SeverityHigh:
		return true
	}
	return false
}

func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credential")
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, map[string]any{"error": code, "details": details})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
