package score

import (
	"context"
	"errors"
	"testing"
)

// mockProvider implements oracle.Provider for testing.
type mockProvider struct {
	response   string
	err        error
	configured bool
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ int) (string, error) {
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return m.configured }

func TestKeywordScorerTiers(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantSeverity  string
		wantSentiment float64
	}{
		{"critical keyword", "CEO arrested on fraud charges", SeverityHigh, -0.8},
		{"threat keyword only", "Ongoing investigation into practices", SeverityMedium, -0.5},
		{"neutral text", "Quarterly results announced", SeverityLow, -0.1},
		{"critical wins over threat", "guilty verdict in lawsuit", SeverityHigh, -0.8},
		{"case insensitive", "EXPOSED in new report", SeverityHigh, -0.8},
		{"empty text", "", SeverityLow, -0.1},
	}

	var scorer KeywordScorer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := scorer.Score(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Severity != tt.wantSeverity {
				t.Errorf("severity = %q, want %q", a.Severity, tt.wantSeverity)
			}
			if a.Sentiment != tt.wantSentiment {
				t.Errorf("sentiment = %v, want %v", a.Sentiment, tt.wantSentiment)
			}
			if a.Confidence != keywordConfidence {
				t.Errorf("confidence = %d, want %d", a.Confidence, keywordConfidence)
			}
		})
	}
}

func TestParseOracleResponse(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantSummary  string
		wantSeverity string
		wantOK       bool
	}{
		{"valid high", "Executive named in leak::SEVERITY::HIGH", "Executive named in leak", "high", true},
		{"valid low with whitespace", " All clear ::SEVERITY:: LOW ", "All clear", "low", true},
		{"missing delimiter", "Just a summary", "", "", false},
		{"empty summary", "::SEVERITY::HIGH", "", "", false},
		{"empty severity", "Summary::SEVERITY::", "", "", false},
		{"unknown severity", "Summary::SEVERITY::EXTREME", "", "", false},
		{"double delimiter", "a::SEVERITY::b::SEVERITY::HIGH", "", "", false},
		{"empty response", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, severity, ok := ParseOracleResponse(tt.response)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if summary != tt.wantSummary || severity != tt.wantSeverity {
				t.Errorf("got (%q, %q), want (%q, %q)", summary, severity, tt.wantSummary, tt.wantSeverity)
			}
		})
	}
}

func TestOracleScorerHappyPath(t *testing.T) {
	provider := &mockProvider{response: "CEO implicated in breach::SEVERITY::HIGH", configured: true}
	scorer := NewOracleScorer(provider, 256)

	a, err := scorer.Score(context.Background(), "some content")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Severity != SeverityHigh {
		t.Errorf("severity = %q, want high", a.Severity)
	}
	if a.Summary == nil || *a.Summary != "CEO implicated in breach" {
		t.Errorf("unexpected summary: %v", a.Summary)
	}
}

func TestOracleScorerFallsBackOnError(t *testing.T) {
	provider := &mockProvider{err: errors.New("oracle unreachable"), configured: true}
	scorer := NewOracleScorer(provider, 256)

	a, err := scorer.Score(context.Background(), "CEO arrested yesterday")
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if a.Severity != SeverityHigh {
		t.Errorf("expected keyword fallback high, got %q", a.Severity)
	}
	if a.Summary != nil {
		t.Error("fallback must not carry an oracle summary")
	}
}

func TestOracleScorerFallsBackOnMalformedResponse(t *testing.T) {
	provider := &mockProvider{response: "here is my analysis, severity high I think", configured: true}
	scorer := NewOracleScorer(provider, 256)

	a, _ := scorer.Score(context.Background(), "Ongoing lawsuit over royalties")
	if a.Severity != SeverityMedium {
		t.Errorf("expected keyword fallback medium, got %q", a.Severity)
	}
}

func TestOracleScorerUnconfiguredProvider(t *testing.T) {
	scorer := NewOracleScorer(&mockProvider{configured: false}, 256)
	a, _ := scorer.Score(context.Background(), "Quarterly results announced")
	if a.Severity != SeverityLow {
		t.Errorf("expected keyword path, got %q", a.Severity)
	}
}

func TestOracleScorerNilProvider(t *testing.T) {
	scorer := NewOracleScorer(nil, 0)
	a, err := scorer.Score(context.Background(), "major scandal brewing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Severity != SeverityMedium {
		t.Errorf("expected medium, got %q", a.Severity)
	}
}
