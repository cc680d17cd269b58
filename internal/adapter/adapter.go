package adapter

import (
	"time"

	"github.com/yourusername/fleet-manager/internal/console"
	"github.com/yourusername/fleet-manager/internal/metrics"
)

// Status is the lifecycle state of a managed server process.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusCrashed  Status = "crashed"
)

// CommandResult reports the outcome of a console command.
type CommandResult struct {
	Success    bool      `json:"success"`
	Output     string    `json:"output,omitempty"`
	ExecutedAt time.Time `json:"executedAt"`
}

// Adapter is the capability contract every server integration implements.
// The adapter owns the lifecycle of exactly one server process; callers
// never touch the OS process directly.
//
// File, backup, and mod operations are part of the contract so callers have
// one interface to program against, but every adapter here fails them fast:
// those concerns belong to their dedicated services.
type Adapter interface {
	ServerID() string

	// Lifecycle
	Start() error
	Stop() error
	Restart() error
	Kill() error

	// Attachment to an already-running process
	Reconnect(pid int) bool
	Disconnect()
	IsConnected() bool

	// Inspection
	GetPid() int
	GetStatus() Status
	GetMetrics() metrics.Snapshot

	// Console
	SendCommand(command string) CommandResult
	StreamLogs(callback console.Subscriber) string
	StopLogStream(subscriptionID string)
	GetLogs(limit int) []console.LogEntry

	// Delegated to dedicated services, always rejected here
	ListFiles(path string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	CreateBackup(name string) (string, error)
	RestoreBackup(name string) error
	InstallMod(modID string) error
	RemoveMod(modID string) error
}
