package database

// UpsertEntityEdge records one co-mention of relatedEntity alongside
// sourceEntity. The write is a single conditional statement: existing edges
// get frequency+1 and a fresh last_seen, new edges start at frequency 1.
// Concurrent scans of the same subject therefore cannot lose updates.
func (db *DB) UpsertEntityEdge(sourceEntity, relatedEntity string) error {
	_, err := db.conn.Exec(
		`INSERT INTO entity_graph (source_entity, related_entity, relationship_type, frequency, last_seen)
		VALUES (?, ?, 'co-mentioned', 1, datetime('now'))
		ON CONFLICT(source_entity, related_entity) DO UPDATE
		SET frequency = frequency + 1,
		    last_seen = datetime('now')`,
		sourceEntity, relatedEntity,
	)
	return err
}

// GetEntityEdges returns all edges for a subject, highest frequency first.
func (db *DB) GetEntityEdges(sourceEntity string) ([]EntityEdge, error) {
	rows, err := db.conn.Query(
		`SELECT source_entity, related_entity, relationship_type, frequency, last_seen
		FROM entity_graph WHERE source_entity = ?
		ORDER BY frequency DESC, related_entity`, sourceEntity,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []EntityEdge
	for rows.Next() {
		var e EntityEdge
		if err := rows.Scan(&e.SourceEntity, &e.RelatedEntity, &e.RelationshipType, &e.Frequency, &e.LastSeen); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
