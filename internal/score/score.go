// Package score assigns severity, sentiment and confidence to candidate
// content, either by deterministic keyword tiers or through the labeling
// oracle with a deterministic fallback.
package score

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonL79/aria-ops-ai-sub008/internal/oracle"
)

// Severity levels, ordered.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Assessment is the outcome of scoring one piece of content.
type Assessment struct {
	Severity   string
	Sentiment  float64
	Confidence int
	Summary    *string
}

// Scorer scores a piece of sanitized text.
type Scorer interface {
	Score(ctx context.Context, text string) (Assessment, error)
}

// criticalTier marks content describing realized harm.
var criticalTier = []string{"arrested", "charged", "guilty", "criminal", "exposed", "leaked"}

// threatTier marks content describing reputational risk in progress.
var threatTier = []string{
	"scandal", "controversy", "investigation", "allegation", "lawsuit",
	"fraud", "crisis", "abuse", "hack", "breach",
}

// keywordConfidence reflects that the tier match is a heuristic, not a model
// judgment.
const keywordConfidence = 85

// KeywordScorer buckets text by fixed keyword tiers. Deterministic and
// infallible; the guaranteed-correct core the oracle path falls back to.
type KeywordScorer struct{}

// Score classifies text by tier presence. Critical tier wins over threat tier.
func (KeywordScorer) Score(_ context.Context, text string) (Assessment, error) {
	lower := strings.ToLower(text)

	for _, kw := range criticalTier {
		if strings.Contains(lower, kw) {
			return Assessment{Severity: SeverityHigh, Sentiment: -0.8, Confidence: keywordConfidence}, nil
		}
	}
	for _, kw := range threatTier {
		if strings.Contains(lower, kw) {
			return Assessment{Severity: SeverityMedium, Sentiment: -0.5, Confidence: keywordConfidence}, nil
		}
	}
	return Assessment{Severity: SeverityLow, Sentiment: -0.1, Confidence: keywordConfidence}, nil
}

// SeverityDelimiter separates the summary from the severity tag in oracle
// responses.
const SeverityDelimiter = "::SEVERITY::"

const oraclePrompt = `You are a reputational threat analyst. Summarize the reputational threat in the text below in one line, then emit the severity.

Respond with EXACTLY this format and nothing else:
<one-line summary>` + SeverityDelimiter + `<LOW|MEDIUM|HIGH>

Text:
"""%s"""`

// OracleScorer asks the labeling oracle for a summary plus severity tag and
// falls back to the deterministic scorer whenever the response does not match
// the delimiter contract. A record is never persisted with an invented
// severity.
type OracleScorer struct {
	provider  oracle.Provider
	fallback  KeywordScorer
	maxTokens int
}

// NewOracleScorer wires an oracle-backed scorer with keyword fallback.
func NewOracleScorer(provider oracle.Provider, maxTokens int) *OracleScorer {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &OracleScorer{provider: provider, maxTokens: maxTokens}
}

// Score runs the oracle path and degrades to keyword tiers on any failure.
func (s *OracleScorer) Score(ctx context.Context, text string) (Assessment, error) {
	if s.provider == nil || !s.provider.IsConfigured() {
		return s.fallback.Score(ctx, text)
	}

	response, err := s.provider.Generate(ctx, fmt.Sprintf(oraclePrompt, text), s.maxTokens)
	if err != nil {
		return s.fallback.Score(ctx, text)
	}

	summary, severity, ok := ParseOracleResponse(response)
	if !ok {
		return s.fallback.Score(ctx, text)
	}

	assessment := Assessment{
		Severity:   severity,
		Sentiment:  sentimentFor(severity),
		Confidence: 90,
		Summary:    &summary,
	}
	return assessment, nil
}

// ParseOracleResponse splits an oracle response on the severity delimiter.
// The parse is strict: exactly one delimiter occurrence, two non-empty
// halves, and a known severity token. Anything else is a failed parse.
func ParseOracleResponse(response string) (summary, severity string, ok bool) {
	parts := strings.Split(strings.TrimSpace(response), SeverityDelimiter)
	if len(parts) != 2 {
		return "", "", false
	}

	summary = strings.TrimSpace(parts[0])
	level := strings.ToLower(strings.TrimSpace(parts[1]))
	if summary == "" || level == "" {
		return "", "", false
	}

	switch level {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return summary, level, true
	}
	return "", "", false
}

func sentimentFor(severity string) float64 {
	switch severity {
	case SeverityHigh:
		return -0.8
	case SeverityMedium:
		return -0.5
	default:
		return -0.1
	}
}
