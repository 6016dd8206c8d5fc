package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS scan_results (
    id TEXT PRIMARY KEY,
    dedupe_key TEXT UNIQUE NOT NULL,
    platform TEXT NOT NULL,
    content TEXT NOT NULL,
    url TEXT DEFAULT '',
    severity TEXT NOT NULL DEFAULT 'low',
    sentiment REAL NOT NULL DEFAULT 0,
    confidence_score INTEGER NOT NULL DEFAULT 0,
    detected_entities TEXT,
    risk_entity_name TEXT,
    risk_entity_type TEXT,
    threat_type TEXT,
    source_type TEXT NOT NULL DEFAULT 'manual',
    status TEXT NOT NULL DEFAULT 'new',
    threat_summary TEXT,
    threat_severity TEXT,
    potential_reach INTEGER NOT NULL DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scan_results_severity ON scan_results(severity);
CREATE INDEX IF NOT EXISTS idx_scan_results_platform ON scan_results(platform);

CREATE TABLE IF NOT EXISTS entity_graph (
    source_entity TEXT NOT NULL,
    related_entity TEXT NOT NULL,
    relationship_type TEXT NOT NULL DEFAULT 'co-mentioned',
    frequency INTEGER NOT NULL DEFAULT 1,
    last_seen TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (source_entity, related_entity)
);

CREATE TABLE IF NOT EXISTS threat_profiles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_name TEXT NOT NULL,
    threat_level TEXT NOT NULL,
    risk_score REAL NOT NULL DEFAULT 0,
    signature_match TEXT,
    match_confidence REAL NOT NULL DEFAULT 0,
    primary_platforms TEXT,
    total_mentions INTEGER NOT NULL DEFAULT 0,
    negative_sentiment_score REAL NOT NULL DEFAULT 0,
    related_entities TEXT,
    fix_plan TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_threat_profiles_entity ON threat_profiles(entity_name);

CREATE TABLE IF NOT EXISTS mission_chain_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity TEXT NOT NULL,
    step_number INTEGER NOT NULL,
    action TEXT NOT NULL,
    module TEXT NOT NULL,
    status TEXT NOT NULL,
    details TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_mission_log_entity ON mission_chain_log(entity, step_number);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
