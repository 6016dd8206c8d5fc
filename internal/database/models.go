package database

// ScanResult is the durable unit of intelligence produced by a scan or a
// gateway submission. Immutable once persisted except Status.
type ScanResult struct {
	ID               string   `json:"id"`
	Platform         string   `json:"platform"`
	Content          string   `json:"content"`
	URL              string   `json:"url"`
	Severity         string   `json:"severity"` // low | medium | high
	Sentiment        float64  `json:"sentiment"`
	ConfidenceScore  int      `json:"confidence_score"`
	DetectedEntities []string `json:"detected_entities"`
	RiskEntityName   *string  `json:"risk_entity_name"`
	RiskEntityType   *string  `json:"risk_entity_type"`
	ThreatType       *string  `json:"threat_type"`
	SourceType       string   `json:"source_type"`
	Status           string   `json:"status"`
	ThreatSummary    *string  `json:"threat_summary"`
	ThreatSeverity   *string  `json:"threat_severity"`
	PotentialReach   int      `json:"potential_reach"`
	CreatedAt        *string  `json:"created_at"`
}

// EntityEdge is a co-mention edge in the relationship graph, stored directed
// from the scanned subject. Never deleted; frequency only grows.
type EntityEdge struct {
	SourceEntity     string  `json:"source_entity"`
	RelatedEntity    string  `json:"related_entity"`
	RelationshipType string  `json:"relationship_type"`
	Frequency        int     `json:"frequency"`
	LastSeen         *string `json:"last_seen"`
}

// ThreatProfile is the per-scan risk profile for one subject.
// Recomputed fresh on every scan, never merged incrementally.
type ThreatProfile struct {
	ID                     int64    `json:"id"`
	EntityName             string   `json:"entity_name"`
	ThreatLevel            string   `json:"threat_level"` // low | moderate | high | critical
	RiskScore              float64  `json:"risk_score"`
	SignatureMatch         string   `json:"signature_match"`
	MatchConfidence        float64  `json:"match_confidence"`
	PrimaryPlatforms       []string `json:"primary_platforms"`
	TotalMentions          int      `json:"total_mentions"`
	NegativeSentimentScore float64  `json:"negative_sentiment_score"`
	RelatedEntities        []string `json:"related_entities"`
	FixPlan                string   `json:"fix_plan"`
	CreatedAt              *string  `json:"created_at"`
}

// MissionLogEntry is an append-only audit record of a pipeline stage
// transition, ordered by StepNumber within one scan invocation.
type MissionLogEntry struct {
	ID         int64   `json:"id"`
	Entity     string  `json:"entity"`
	StepNumber int     `json:"step_number"`
	Action     string  `json:"action"`
	Module     string  `json:"module"`
	Status     string  `json:"status"`
	Details    string  `json:"details"`
	CreatedAt  *string `json:"created_at"`
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalResults     int
	HighSeverity     int
	GraphEdges       int
	Profiles         int
	ProfiledSubjects int
	MissionLogRows   int
}
