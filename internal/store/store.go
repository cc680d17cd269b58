package store

import "time"

// ProcessState is the durable surrogate for a server's process handle.
// PID and StartedAt are nil whenever no handle is active.
type ProcessState struct {
	ServerID  string
	PID       *int
	StartedAt *time.Time
	Status    string
}

// CommandRecord represents one command written to a server's input channel.
type CommandRecord struct {
	ID         int64     `json:"id"`
	ServerID   string    `json:"server_id"`
	Command    string    `json:"command"`
	Success    bool      `json:"success"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Store is the minimal persistence contract the supervisor depends on.
// The adapter writes it on every lifecycle transition; the reconnection
// manager reads it once at boot.
type Store interface {
	// GetState returns the persisted state for a server. A server that was
	// never written reports status "stopped" with no pid.
	GetState(serverID string) (ProcessState, error)

	// SaveRuntime records an active process handle together with the status
	// that accompanies it.
	SaveRuntime(serverID string, pid int, startedAt time.Time, status string) error

	// ClearRuntime drops the pid/startedAt pair and records the final status.
	ClearRuntime(serverID string, status string) error

	// SetStatus updates the status without touching the pid pair.
	SetStatus(serverID string, status string) error

	// ListWithPID returns every server that still has a persisted pid,
	// in deterministic order.
	ListWithPID() ([]ProcessState, error)

	// RecordCommand appends to the command history.
	RecordCommand(serverID, command string, success bool, executedAt time.Time) error

	// RecentCommands returns the newest history entries for a server.
	RecentCommands(serverID string, limit int) ([]CommandRecord, error)
}
