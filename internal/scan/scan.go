// Package scan orchestrates a live multi-source scan for a subject: query
// expansion, concurrent collection, enrichment, per-item scoring,
// persistence, relationship graphing and profile aggregation.
package scan

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/simonL79/aria-ops-ai-sub008/internal/config"
	"github.com/simonL79/aria-ops-ai-sub008/internal/database"
	"github.com/simonL79/aria-ops-ai-sub008/internal/enrich"
	"github.com/simonL79/aria-ops-ai-sub008/internal/graph"
	"github.com/simonL79/aria-ops-ai-sub008/internal/oracle"
	"github.com/simonL79/aria-ops-ai-sub008/internal/profile"
	"github.com/simonL79/aria-ops-ai-sub008/internal/query"
	"github.com/simonL79/aria-ops-ai-sub008/internal/sanitize"
	"github.com/simonL79/aria-ops-ai-sub008/internal/score"
	"github.com/simonL79/aria-ops-ai-sub008/internal/sources"
)

const moduleName = "scan"

// StepResult holds the result of a single scan step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the outcome of a full scan run. A scan always carries a
// profile, possibly a degenerate low/0.0 one when nothing was found.
type Result struct {
	Subject         string
	Steps           []StepResult
	Results         []database.ScanResult
	Inserted        int
	RelatedEntities []string
	Profile         *database.ThreatProfile
	Summary         string
}

// Options tunes one scan invocation.
type Options struct {
	Hints           []string
	Depth           int  // >= 2 enables full-text enrichment of thin items
	GenerateProfile bool // skip profile aggregation and persistence when false
}

// Runner drives the scan pipeline.
type Runner struct {
	cfg       *config.Config
	db        *database.DB
	fetcher   *sources.Fetcher
	enricher  *enrich.Enricher
	extractor *oracle.Extractor
	scorer    score.Scorer
}

// New creates a runner wired to the configured sources and oracle.
func New(cfg *config.Config, db *database.DB) *Runner {
	o := cfg.Oracle
	provider := oracle.CreateProvider(o.Provider, o.Model, o.OllamaURL, o.OpenAIModel, o.APIKeyEnv)

	srcs := sources.FromConfig(cfg.Sources)
	s := cfg.Scan

	return &Runner{
		cfg:       cfg,
		db:        db,
		fetcher:   sources.NewFetcher(srcs, s.Workers, s.MaxItemsPerSource, s.FetchTimeout),
		enricher:  enrich.NewEnricher(0, s.EnrichThreshold),
		extractor: oracle.NewExtractor(provider, o.MaxTokens),
		scorer:    score.NewOracleScorer(provider, o.MaxTokens),
	}
}

// Run executes a full scan for the subject within the configured deadline.
// Step failures are absorbed: the run always aggregates whatever was
// collected into a profile.
func (r *Runner) Run(ctx context.Context, subject string, opts Options) *Result {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Scan.Deadline)
	defer cancel()

	res := &Result{Subject: subject}
	logStep := newMissionLogger(r.db, subject)

	logStep("SCAN_INITIATED", fmt.Sprintf("Live scanning initiated for %s with depth %d", subject, opts.Depth))

	// Step 1: query expansion
	queries := query.Expand(subject, opts.Hints, r.cfg.Scan.MaxQueries)
	res.Steps = append(res.Steps, StepResult{
		Name:    "Expand",
		Summary: fmt.Sprintf("%d threat-focused queries", len(queries)),
	})
	logStep("QUERY_EXPANSION_COMPLETE", fmt.Sprintf("Generated %d threat-focused search queries", len(queries)))

	// Step 2: concurrent multi-source collection
	candidates, stats := r.fetcher.Fetch(ctx, subject, queries)
	res.Steps = append(res.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("%d items from %d/%d fetches (%d duplicates)",
			stats.Items, stats.Succeeded, stats.Jobs, stats.Duplicates),
	})
	logStep("DATA_COLLECTION_COMPLETE", fmt.Sprintf("Collected %d live intelligence items", len(candidates)))

	// Step 3: full-text enrichment for deep scans
	if opts.Depth >= 2 {
		er := r.enricher.Enrich(ctx, candidates)
		res.Steps = append(res.Steps, StepResult{
			Name:    "Enrich",
			Summary: fmt.Sprintf("%d enriched, %d failed", er.Enriched, er.Failed),
		})
	}

	// Step 4: score, extract and persist each item independently
	var bodies []string
	for _, c := range candidates {
		row := r.analyze(ctx, subject, c)
		res.Results = append(res.Results, *row)
		bodies = append(bodies, c.Body)

		stored, err := r.db.InsertScanResult(row)
		if err != nil {
			log.Printf("Failed to persist result for %s: %v", c.URL, err)
			continue
		}
		if stored != nil {
			res.Inserted++
		}
	}
	res.Steps = append(res.Steps, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("%d items scored, %d persisted", len(res.Results), res.Inserted),
	})

	// Step 5: co-mention relationship graph
	res.RelatedEntities = graph.Related(strings.Join(bodies, " "), subject, r.cfg.Scan.TopEntities)
	recorded := graph.NewBuilder(r.db).Record(subject, res.RelatedEntities)
	res.Steps = append(res.Steps, StepResult{
		Name:    "Graph",
		Summary: fmt.Sprintf("%d related entities, %d edges recorded", len(res.RelatedEntities), recorded),
	})

	// Step 6: profile aggregation
	if opts.GenerateProfile {
		res.Profile = profile.Aggregate(subject, res.Results, res.RelatedEntities)
		if stored, err := r.db.InsertThreatProfile(res.Profile); err != nil {
			log.Printf("Failed to store threat profile for %s: %v", subject, err)
		} else {
			res.Profile = stored
		}
		res.Summary = profile.Summary(subject, res.Results, res.RelatedEntities, res.Profile)
		res.Steps = append(res.Steps, StepResult{
			Name:    "Profile",
			Summary: fmt.Sprintf("threat level %s, risk %.2f", res.Profile.ThreatLevel, res.Profile.RiskScore),
		})
	}

	level := "unknown"
	if res.Profile != nil {
		level = res.Profile.ThreatLevel
	}
	logStep("SCAN_COMPLETE", fmt.Sprintf("Scan completed: %d threats analyzed, threat level: %s", len(res.Results), level))

	return res
}

// analyze turns one candidate into a persistable record: sanitize, extract
// entities, score. Oracle failures degrade inside the extractor and scorer;
// the record stays attributed to the scanned subject either way.
func (r *Runner) analyze(ctx context.Context, subject string, c sources.Candidate) *database.ScanResult {
	content := sanitize.Clean(c.Content)
	body := sanitize.Clean(c.Body)

	entities := r.extractor.Extract(ctx, body)
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	if len(names) == 0 {
		names = []string{subject}
	}

	assessment, err := r.scorer.Score(ctx, body)
	if err != nil {
		// The oracle scorer already falls back internally; a hard error
		// here still yields the keyword baseline.
		assessment, _ = score.KeywordScorer{}.Score(ctx, body)
	}

	row := &database.ScanResult{
		Platform:         c.Platform,
		Content:          content,
		URL:              c.URL,
		Severity:         assessment.Severity,
		Sentiment:        assessment.Sentiment,
		ConfidenceScore:  assessment.Confidence,
		DetectedEntities: names,
		SourceType:       "live_scan",
		ThreatSummary:    assessment.Summary,
		PotentialReach:   100,
	}
	if primary := oracle.Primary(entities); primary != nil {
		row.RiskEntityName = &primary.Name
		row.RiskEntityType = &primary.Type
	} else {
		subj := subject
		row.RiskEntityName = &subj
	}
	if assessment.Severity != score.SeverityLow {
		sev := assessment.Severity
		row.ThreatSeverity = &sev
	}
	return row
}

// newMissionLogger returns an appender that assigns strictly increasing
// step numbers. Only the orchestrator goroutine calls it.
func newMissionLogger(db *database.DB, subject string) func(action, details string) {
	step := 0
	return func(action, details string) {
		step++
		if err := db.AppendMissionLog(subject, step, action, moduleName, "executed", details); err != nil {
			log.Printf("Failed to append mission log step %d (%s): %v", step, action, err)
		}
	}
}
