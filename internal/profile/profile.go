// Package profile reduces a batch of scored scan results into one risk
// profile for the subject.
package profile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/simonL79/aria-ops-ai-sub008/internal/database"
)

// Threat levels, ordered.
const (
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// negativeThreshold is the sentiment below which a mention counts as negative.
const negativeThreshold = -0.2

// fixPlans maps each threat level to its recommended action. Deterministic
// by contract; no free-text generation.
var fixPlans = map[string]string{
	LevelCritical: "IMMEDIATE: Deploy counter-narrative response, activate memory override, initiate legal response protocol",
	LevelHigh:     "URGENT: Deploy sentiment intervention, enhance monitoring protocols, prepare legal documentation",
	LevelModerate: "MONITOR: Continue live surveillance, prepare response templates, track sentiment trends",
	LevelLow:      "MAINTAIN: Standard monitoring protocols, periodic system health checks",
}

// Aggregate computes a fresh ThreatProfile from one scan batch. An empty
// batch short-circuits to a degenerate low/0.0 profile rather than dividing
// by zero; zero mentions found is a valid result, not an error.
func Aggregate(subject string, results []database.ScanResult, relatedEntities []string) *database.ThreatProfile {
	p := &database.ThreatProfile{
		EntityName:      subject,
		SignatureMatch:  "SIGMA-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		MatchConfidence: 0.85,
		RelatedEntities: relatedEntities,
	}

	if len(results) == 0 {
		p.ThreatLevel = LevelLow
		p.RiskScore = 0
		p.FixPlan = fixPlans[LevelLow]
		return p
	}

	var highCount, mediumCount, negativeMentions int
	platformSet := make(map[string]struct{})
	for _, r := range results {
		switch r.Severity {
		case "high":
			highCount++
		case "medium":
			mediumCount++
		}
		if r.Sentiment < negativeThreshold {
			negativeMentions++
		}
		platformSet[r.Platform] = struct{}{}
	}

	total := len(results)
	negativeRatio := float64(negativeMentions) / float64(total)

	risk := float64(highCount)*0.4 + float64(mediumCount)*0.2 + negativeRatio*0.4
	if risk > 1.0 {
		risk = 1.0
	}

	p.RiskScore = risk
	p.ThreatLevel = levelFor(risk)
	p.TotalMentions = total
	p.NegativeSentimentScore = negativeRatio
	p.PrimaryPlatforms = sortedKeys(platformSet)
	p.FixPlan = fixPlans[p.ThreatLevel]
	return p
}

// levelFor classifies a risk score with strict >= threshold semantics.
func levelFor(risk float64) string {
	switch {
	case risk >= 0.8:
		return LevelCritical
	case risk >= 0.6:
		return LevelHigh
	case risk >= 0.3:
		return LevelModerate
	default:
		return LevelLow
	}
}

// Summary renders the one-paragraph executive summary returned by the scan
// API alongside the stored profile.
func Summary(subject string, results []database.ScanResult, relatedEntities []string, p *database.ThreatProfile) string {
	highSeverity := 0
	platformSet := make(map[string]struct{})
	for _, r := range results {
		if r.Severity == "high" {
			highSeverity++
		}
		platformSet[r.Platform] = struct{}{}
	}

	top := relatedEntities
	if len(top) > 5 {
		top = top[:5]
	}
	relatedText := "none discovered"
	if len(top) > 0 {
		relatedText = strings.Join(top, ", ")
	}

	return fmt.Sprintf(
		"Intelligence summary for %s: %d live mentions detected across %d platforms. "+
			"%d high-severity threats identified. Risk level: %s. "+
			"Related entities: %s. Threat signature: %s.",
		subject, len(results), len(platformSet), highSeverity,
		strings.ToUpper(p.ThreatLevel), relatedText, p.SignatureMatch,
	)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
