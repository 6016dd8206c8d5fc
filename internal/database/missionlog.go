package database

// AppendMissionLog writes one audit entry. Entries are write-once; callers
// are responsible for issuing them in step_number order within a scan.
func (db *DB) AppendMissionLog(entity string, stepNumber int, action, module, status, details string) error {
	_, err := db.conn.Exec(
		`INSERT INTO mission_chain_log (entity, step_number, action, module, status, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entity, stepNumber, action, module, status, details,
	)
	return err
}

// GetMissionLog returns the audit trail for a subject in step order.
func (db *DB) GetMissionLog(entity string) ([]MissionLogEntry, error) {
	rows, err := db.conn.Query(
		`SELECT id, entity, step_number, action, module, status, details, created_at
		FROM mission_chain_log WHERE entity = ? ORDER BY id`, entity,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []MissionLogEntry
	for rows.Next() {
		var e MissionLogEntry
		if err := rows.Scan(&e.ID, &e.Entity, &e.StepNumber, &e.Action, &e.Module, &e.Status, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
