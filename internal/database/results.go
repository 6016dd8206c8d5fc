package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DedupeKey derives the idempotence key for a scan result. A retried scan
// that reprocesses an overlapping candidate produces the same key and the
// insert becomes a no-op.
func DedupeKey(platform, url, content string) string {
	h := sha256.Sum256([]byte(platform + "|" + url + "|" + content))
	return hex.EncodeToString(h[:])
}

// InsertScanResult persists a scan result. Returns the stored row, or
// (nil, nil) if an identical result already exists.
func (db *DB) InsertScanResult(r *ScanResult) (*ScanResult, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = "new"
	}

	var entitiesJSON *string
	if len(r.DetectedEntities) > 0 {
		data, err := json.Marshal(r.DetectedEntities)
		if err != nil {
			return nil, fmt.Errorf("marshaling entities: %w", err)
		}
		s := string(data)
		entitiesJSON = &s
	}

	key := DedupeKey(r.Platform, r.URL, r.Content)
	res, err := db.conn.Exec(
		`INSERT INTO scan_results (id, dedupe_key, platform, content, url, severity, sentiment,
			confidence_score, detected_entities, risk_entity_name, risk_entity_type, threat_type,
			source_type, status, threat_summary, threat_severity, potential_reach)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedupe_key) DO NOTHING`,
		r.ID, key, r.Platform, r.Content, r.URL, r.Severity, r.Sentiment,
		r.ConfidenceScore, entitiesJSON, r.RiskEntityName, r.RiskEntityType, r.ThreatType,
		r.SourceType, r.Status, r.ThreatSummary, r.ThreatSeverity, r.PotentialReach,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting scan result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return db.GetScanResult(r.ID)
}

// GetScanResult returns a single scan result by ID, or nil if absent.
func (db *DB) GetScanResult(id string) (*ScanResult, error) {
	row := db.conn.QueryRow(
		`SELECT id, platform, content, url, severity, sentiment, confidence_score,
			detected_entities, risk_entity_name, risk_entity_type, threat_type,
			source_type, status, threat_summary, threat_severity, potential_reach, created_at
		FROM scan_results WHERE id = ?`, id,
	)
	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetScanResultsForSubject returns results mentioning the subject, newest first.
func (db *DB) GetScanResultsForSubject(subject string) ([]ScanResult, error) {
	rows, err := db.conn.Query(
		`SELECT id, platform, content, url, severity, sentiment, confidence_score,
			detected_entities, risk_entity_name, risk_entity_type, threat_type,
			source_type, status, threat_summary, threat_severity, potential_reach, created_at
		FROM scan_results WHERE risk_entity_name = ? ORDER BY created_at DESC`, subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ScanResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// UpdateScanResultStatus mutates the lifecycle status field. Every other
// column is immutable after insert.
func (db *DB) UpdateScanResultStatus(id, status string) error {
	_, err := db.conn.Exec("UPDATE scan_results SET status = ? WHERE id = ?", status, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*ScanResult, error) {
	var r ScanResult
	var entitiesJSON *string
	err := row.Scan(
		&r.ID, &r.Platform, &r.Content, &r.URL, &r.Severity, &r.Sentiment, &r.ConfidenceScore,
		&entitiesJSON, &r.RiskEntityName, &r.RiskEntityType, &r.ThreatType,
		&r.SourceType, &r.Status, &r.ThreatSummary, &r.ThreatSeverity, &r.PotentialReach, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if entitiesJSON != nil && *entitiesJSON != "" {
		if err := json.Unmarshal([]byte(*entitiesJSON), &r.DetectedEntities); err != nil {
			return nil, fmt.Errorf("unmarshaling entities: %w", err)
		}
	}
	return &r, nil
}
