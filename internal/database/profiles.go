package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// InsertThreatProfile stores one freshly computed profile row and returns it
// with its assigned ID.
func (db *DB) InsertThreatProfile(p *ThreatProfile) (*ThreatProfile, error) {
	platformsJSON, err := marshalStrings(p.PrimaryPlatforms)
	if err != nil {
		return nil, fmt.Errorf("marshaling platforms: %w", err)
	}
	entitiesJSON, err := marshalStrings(p.RelatedEntities)
	if err != nil {
		return nil, fmt.Errorf("marshaling related entities: %w", err)
	}

	res, err := db.conn.Exec(
		`INSERT INTO threat_profiles (entity_name, threat_level, risk_score, signature_match,
			match_confidence, primary_platforms, total_mentions, negative_sentiment_score,
			related_entities, fix_plan)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.EntityName, p.ThreatLevel, p.RiskScore, p.SignatureMatch,
		p.MatchConfidence, platformsJSON, p.TotalMentions, p.NegativeSentimentScore,
		entitiesJSON, p.FixPlan,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting threat profile: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetThreatProfile(id)
}

// GetThreatProfile returns a profile by row ID, or nil if absent.
func (db *DB) GetThreatProfile(id int64) (*ThreatProfile, error) {
	row := db.conn.QueryRow(
		`SELECT id, entity_name, threat_level, risk_score, signature_match, match_confidence,
			primary_platforms, total_mentions, negative_sentiment_score, related_entities,
			fix_plan, created_at
		FROM threat_profiles WHERE id = ?`, id,
	)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetLatestProfile returns the most recent profile for a subject, or nil.
func (db *DB) GetLatestProfile(entityName string) (*ThreatProfile, error) {
	row := db.conn.QueryRow(
		`SELECT id, entity_name, threat_level, risk_score, signature_match, match_confidence,
			primary_platforms, total_mentions, negative_sentiment_score, related_entities,
			fix_plan, created_at
		FROM threat_profiles WHERE entity_name = ? ORDER BY id DESC LIMIT 1`, entityName,
	)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanProfile(row rowScanner) (*ThreatProfile, error) {
	var p ThreatProfile
	var platformsJSON, entitiesJSON *string
	err := row.Scan(
		&p.ID, &p.EntityName, &p.ThreatLevel, &p.RiskScore, &p.SignatureMatch, &p.MatchConfidence,
		&platformsJSON, &p.TotalMentions, &p.NegativeSentimentScore, &entitiesJSON,
		&p.FixPlan, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalStrings(platformsJSON, &p.PrimaryPlatforms); err != nil {
		return nil, fmt.Errorf("unmarshaling platforms: %w", err)
	}
	if err := unmarshalStrings(entitiesJSON, &p.RelatedEntities); err != nil {
		return nil, fmt.Errorf("unmarshaling related entities: %w", err)
	}
	return &p, nil
}

func marshalStrings(values []string) (*string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func unmarshalStrings(raw *string, dest *[]string) error {
	if raw == nil || *raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(*raw), dest)
}
