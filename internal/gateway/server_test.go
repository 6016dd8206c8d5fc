package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonL79/aria-ops-ai-sub008/internal/database"
	"github.com/simonL79/aria-ops-ai-sub008/internal/oracle"
	"github.com/simonL79/aria-ops-ai-sub008/internal/scan"
	"github.com/simonL79/aria-ops-ai-sub008/internal/score"
)

const testKey = "test-ingest-key"

type stubRunner struct {
	lastSubject string
	lastOpts    scan.Options
	result      *scan.Result
}

func (s *stubRunner) Run(_ context.Context, subject string, opts scan.Options) *scan.Result {
	s.lastSubject = subject
	s.lastOpts = opts
	return s.result
}

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := New(db, testKey, oracle.NewExtractor(nil, 0), score.KeywordScorer{}, nil)
	return srv, db
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIngestRejectsBadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	body := map[string]any{"content": "something", "platform": "Twitter"}

	missing := doRequest(t, srv, http.MethodPost, "/ingest", "", body)
	wrong := doRequest(t, srv, http.MethodPost, "/ingest", "not-the-key", body)

	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	// No information leak about which auth failure occurred.
	assert.Equal(t, missing.Body.String(), wrong.Body.String())
}

func TestIngestValidatesRequiredFields(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/ingest", testKey, map[string]any{"platform": "Twitter"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp["error"])
	assert.Contains(t, resp["details"], "content")

	rec = doRequest(t, srv, http.MethodPost, "/ingest", testKey, map[string]any{"content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestRejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestPersistsScoredRecord(t *testing.T) {
	srv, db := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/ingest", testKey, map[string]any{
		"content":  "CEO arrested on fraud charges https://example.com/story",
		"platform": "Reddit",
		"url":      "https://reddit.com/r/news/1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool                 `json:"success"`
		Payload  *database.ScanResult `json:"payload"`
		Inserted *database.ScanResult `json:"inserted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Inserted)
	assert.Equal(t, score.SeverityHigh, resp.Payload.Severity)
	assert.NotContains(t, resp.Payload.Content, "https://", "URLs are stripped from content")
	assert.Equal(t, "manual", resp.Payload.SourceType)
	assert.Equal(t, 75, resp.Payload.ConfidenceScore)
	assert.Equal(t, 100, resp.Payload.PotentialReach)

	stored, err := db.GetScanResult(resp.Inserted.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Reddit", stored.Platform)
}

func TestIngestHonorsPinnedSeverity(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/ingest", testKey, map[string]any{
		"content":  "CEO arrested on fraud charges",
		"platform": "Twitter",
		"severity": "low",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Payload *database.ScanResult `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, score.SeverityLow, resp.Payload.Severity)
}

func TestIngestDryRunRoundTrip(t *testing.T) {
	srv, db := newTestServer(t)

	body := map[string]any{
		"content":  "Ongoing investigation into practices",
		"platform": "Twitter",
	}

	dry := doRequest(t, srv, http.MethodPost, "/ingest", testKey, map[string]any{
		"content": body["content"], "platform": body["platform"], "test": true,
	})
	require.Equal(t, http.StatusOK, dry.Code)

	var dryResp struct {
		Test    bool                 `json:"test"`
		Success bool                 `json:"success"`
		Payload *database.ScanResult `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(dry.Body.Bytes(), &dryResp))
	assert.True(t, dryResp.Test)
	assert.True(t, dryResp.Success)

	// Nothing persisted on a dry run.
	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalResults)

	// The live path derives the same payload.
	live := doRequest(t, srv, http.MethodPost, "/ingest", testKey, body)
	require.Equal(t, http.StatusOK, live.Code)

	var liveResp struct {
		Payload *database.ScanResult `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(live.Body.Bytes(), &liveResp))

	// The live payload gains its storage ID; everything else matches.
	liveResp.Payload.ID = ""
	assert.Equal(t, dryResp.Payload, liveResp.Payload)
}

func TestScanEndpoint(t *testing.T) {
	srv, db := newTestServer(t)
	runner := &stubRunner{result: &scan.Result{
		Subject:         "Jane Doe",
		RelatedEntities: []string{"Acme Corp"},
		Profile:         &database.ThreatProfile{EntityName: "Jane Doe", ThreatLevel: "low"},
		Summary:         "No threats found.",
	}}
	srv = New(db, testKey, oracle.NewExtractor(nil, 0), score.KeywordScorer{}, runner)

	rec := doRequest(t, srv, http.MethodPost, "/scan", testKey, map[string]any{
		"subject": "Jane Doe",
		"hints":   []string{"cryptocurrency"},
		"depth":   2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Jane Doe", runner.lastSubject)
	assert.Equal(t, []string{"cryptocurrency"}, runner.lastOpts.Hints)
	assert.Equal(t, 2, runner.lastOpts.Depth)
	assert.True(t, runner.lastOpts.GenerateProfile, "profile generation defaults to on")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(0), resp["scan_results"])
	assert.Equal(t, "No threats found.", resp["summary"])
}

func TestScanRequiresSubject(t *testing.T) {
	srv, db := newTestServer(t)
	srv = New(db, testKey, oracle.NewExtractor(nil, 0), score.KeywordScorer{}, &stubRunner{result: &scan.Result{}})

	rec := doRequest(t, srv, http.MethodPost, "/scan", testKey, map[string]any{"depth": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
