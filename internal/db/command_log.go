package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Command log statuses.
const (
	CommandStatusOK     = "ok"
	CommandStatusFailed = "failed"
)

// CommandRecord is one audited sensor command. The sensor protocol is
// fire-and-forget, so Status reflects whether the frame was written, not
// whether the sensor applied it.
type CommandRecord struct {
	ID        string    `json:"id"`
	Opcode    uint16    `json:"opcode"`
	Params    string    `json:"params"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LogCommand records a sensor command and its outcome, returning the
// generated command ID.
func (db *DB) LogCommand(opcode uint16, params string, cmdErr error) (string, error) {
	id := uuid.NewString()
	status := CommandStatusOK
	errText := sql.NullString{}
	if cmdErr != nil {
		status = CommandStatusFailed
		errText = sql.NullString{String: cmdErr.Error(), Valid: true}
	}

	_, err := db.Exec(
		`INSERT INTO command_log (command_id, opcode, params, status, error, created_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, opcode, params, status, errText, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to log command: %w", err)
	}
	return id, nil
}

// RecentCommands returns the newest command records, most recent first.
func (db *DB) RecentCommands(limit int) ([]CommandRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT command_id, opcode, params, status, error, created_at_ms
		 FROM command_log ORDER BY created_at_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query command log: %w", err)
	}
	defer rows.Close()

	var records []CommandRecord
	for rows.Next() {
		var rec CommandRecord
		var errText sql.NullString
		var createdMs int64
		if err := rows.Scan(&rec.ID, &rec.Opcode, &rec.Params, &rec.Status, &errText, &createdMs); err != nil {
			return nil, fmt.Errorf("failed to scan command record: %w", err)
		}
		rec.Error = errText.String
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
