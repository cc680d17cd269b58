package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLStore persists supervisor state in the manager database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store backed by the given database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetState returns the persisted state for a server.
func (s *SQLStore) GetState(serverID string) (ProcessState, error) {
	state := ProcessState{ServerID: serverID, Status: "stopped"}

	var pid sql.NullInt64
	var startedAt sql.NullTime
	var status string
	err := s.db.QueryRow(`
		SELECT pid, started_at, status FROM server_state WHERE server_id = ?
	`, serverID).Scan(&pid, &startedAt, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return state, nil
		}
		return state, fmt.Errorf("failed to query server state: %w", err)
	}

	state.Status = status
	if pid.Valid {
		value := int(pid.Int64)
		state.PID = &value
	}
	if startedAt.Valid {
		value := startedAt.Time
		state.StartedAt = &value
	}

	return state, nil
}

// SaveRuntime records an active process handle.
func (s *SQLStore) SaveRuntime(serverID string, pid int, startedAt time.Time, status string) error {
	return s.upsert(serverID, &pid, &startedAt, status)
}

// ClearRuntime drops the pid pair and records the final status.
func (s *SQLStore) ClearRuntime(serverID string, status string) error {
	return s.upsert(serverID, nil, nil, status)
}

// SetStatus updates the status without touching the pid pair.
func (s *SQLStore) SetStatus(serverID string, status string) error {
	query := `
		INSERT INTO server_state (server_id, status, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(server_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, serverID, status, time.Now()); err != nil {
		return fmt.Errorf("failed to update server status: %w", err)
	}
	return nil
}

func (s *SQLStore) upsert(serverID string, pid *int, startedAt *time.Time, status string) error {
	query := `
		INSERT INTO server_state (server_id, pid, started_at, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(server_id) DO UPDATE SET
			pid = excluded.pid,
			started_at = excluded.started_at,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	var pidValue interface{}
	if pid != nil {
		pidValue = *pid
	}
	var startedValue interface{}
	if startedAt != nil {
		startedValue = *startedAt
	}

	if _, err := s.db.Exec(query, serverID, pidValue, startedValue, status, time.Now()); err != nil {
		return fmt.Errorf("failed to update server state: %w", err)
	}
	return nil
}

// ListWithPID returns every server that still has a persisted pid.
func (s *SQLStore) ListWithPID() ([]ProcessState, error) {
	rows, err := s.db.Query(`
		SELECT server_id, pid, started_at, status
		FROM server_state
		WHERE pid IS NOT NULL
		ORDER BY server_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query server states: %w", err)
	}
	defer rows.Close()

	states := make([]ProcessState, 0)
	for rows.Next() {
		var state ProcessState
		var pid sql.NullInt64
		var startedAt sql.NullTime
		if err := rows.Scan(&state.ServerID, &pid, &startedAt, &state.Status); err != nil {
			return nil, fmt.Errorf("failed to scan server state: %w", err)
		}
		if pid.Valid {
			value := int(pid.Int64)
			state.PID = &value
		}
		if startedAt.Valid {
			value := startedAt.Time
			state.StartedAt = &value
		}
		states = append(states, state)
	}

	return states, rows.Err()
}

// RecordCommand appends to the command history.
func (s *SQLStore) RecordCommand(serverID, command string, success bool, executedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO console_commands (server_id, command, success, executed_at)
		VALUES (?, ?, ?, ?)
	`, serverID, command, success, executedAt)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// RecentCommands returns the newest history entries for a server.
func (s *SQLStore) RecentCommands(serverID string, limit int) ([]CommandRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, server_id, command, success, executed_at
		FROM console_commands
		WHERE server_id = ?
		ORDER BY executed_at DESC
		LIMIT ?
	`, serverID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query command history: %w", err)
	}
	defer rows.Close()

	commands := []CommandRecord{}
	for rows.Next() {
		var cmd CommandRecord
		if err := rows.Scan(&cmd.ID, &cmd.ServerID, &cmd.Command, &cmd.Success, &cmd.ExecutedAt); err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	return commands, rows.Err()
}
