package adapter

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/console"
	"github.com/yourusername/fleet-manager/internal/metrics"
	"github.com/yourusername/fleet-manager/internal/store"
)

// MockAdapter implements the full capability contract without touching the
// OS. It is selected by adapter type "mock" and used in tests and demo
// fleets where no real game server binary exists.
type MockAdapter struct {
	serviceBoundary

	def   config.ServerDefinition
	store store.Store

	pipeline *console.Pipeline

	mu         sync.Mutex
	status     Status
	pid        int
	startedAt  time.Time
	connected  bool
	spawnCount int
}

// NewMockAdapter creates a mock adapter for a server definition.
func NewMockAdapter(def config.ServerDefinition, defaults config.SupervisorConfig, st store.Store) *MockAdapter {
	return &MockAdapter{
		def:      def,
		store:    st,
		pipeline: console.NewPipeline(def.ID, defaults.LogBufferSize),
		status:   StatusStopped,
	}
}

func (m *MockAdapter) ServerID() string {
	return m.def.ID
}

// Start transitions straight to running with a synthetic pid.
func (m *MockAdapter) Start() error {
	m.mu.Lock()
	switch m.status {
	case StatusStarting, StatusRunning, StatusStopping:
		m.mu.Unlock()
		return ErrAlreadyRunning
	}

	m.spawnCount++
	m.pid = 100000 + m.spawnCount
	m.startedAt = time.Now()
	m.status = StatusRunning
	m.connected = true

	pid := m.pid
	startedAt := m.startedAt
	m.mu.Unlock()

	if err := m.store.SaveRuntime(m.def.ID, pid, startedAt, string(StatusRunning)); err != nil {
		return fmt.Errorf("failed to persist mock runtime: %w", err)
	}

	m.pipeline.Publish("Done (0.00s)! For help, type \"help\"", "stdout")
	return nil
}

func (m *MockAdapter) Stop() error {
	m.mu.Lock()
	if m.status == StatusStopped || m.status == StatusCrashed {
		m.mu.Unlock()
		return nil
	}
	m.status = StatusStopped
	m.pid = 0
	m.startedAt = time.Time{}
	m.connected = false
	m.mu.Unlock()

	m.pipeline.Publish("Stopping server", "stdout")
	return m.store.ClearRuntime(m.def.ID, string(StatusStopped))
}

func (m *MockAdapter) Restart() error {
	if err := m.Stop(); err != nil {
		return err
	}
	return m.Start()
}

func (m *MockAdapter) Kill() error {
	return m.Stop()
}

// Reconnect adopts any positive pid. Mock servers have no real process to
// probe, so liveness is taken at face value.
func (m *MockAdapter) Reconnect(pid int) bool {
	m.mu.Lock()
	if m.connected || pid <= 0 {
		m.mu.Unlock()
		return false
	}
	m.pid = pid
	m.status = StatusRunning
	m.connected = true
	m.startedAt = time.Now()
	if state, err := m.store.GetState(m.def.ID); err == nil && state.StartedAt != nil {
		m.startedAt = *state.StartedAt
	}
	startedAt := m.startedAt
	m.mu.Unlock()

	if err := m.store.SaveRuntime(m.def.ID, pid, startedAt, string(StatusRunning)); err != nil {
		return false
	}
	return true
}

func (m *MockAdapter) Disconnect() {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
}

func (m *MockAdapter) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockAdapter) GetPid() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pid
}

func (m *MockAdapter) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// GetMetrics fabricates a stable snapshot so dashboards render something.
func (m *MockAdapter) GetMetrics() metrics.Snapshot {
	m.mu.Lock()
	status := m.status
	startedAt := m.startedAt
	m.mu.Unlock()

	snapshot := metrics.Snapshot{Timestamp: time.Now()}
	if status != StatusRunning {
		return snapshot
	}
	snapshot.CPUUsage = 5.0
	snapshot.MemoryUsedMB = 256
	snapshot.MemoryTotalMB = 4096
	snapshot.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	return snapshot
}

// SendCommand echoes the command back to the console.
func (m *MockAdapter) SendCommand(command string) CommandResult {
	executedAt := time.Now()

	m.mu.Lock()
	running := m.status == StatusRunning
	m.mu.Unlock()

	result := CommandResult{ExecutedAt: executedAt}
	if !running {
		result.Output = "server is not running"
	} else {
		result.Success = true
		m.pipeline.Publish(fmt.Sprintf("> %s", command), "stdin")
	}

	_ = m.store.RecordCommand(m.def.ID, command, result.Success, executedAt)
	return result
}

func (m *MockAdapter) StreamLogs(callback console.Subscriber) string {
	return m.pipeline.Subscribe(callback)
}

func (m *MockAdapter) StopLogStream(subscriptionID string) {
	m.pipeline.Unsubscribe(subscriptionID)
}

func (m *MockAdapter) GetLogs(limit int) []console.LogEntry {
	return m.pipeline.GetLast(limit)
}

// SpawnCount reports how many times Start has launched. Used by tests to
// assert that adoption never spawns.
func (m *MockAdapter) SpawnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spawnCount
}
