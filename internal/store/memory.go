package store

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests and by mock adapters.
type MemoryStore struct {
	mu       sync.RWMutex
	states   map[string]ProcessState
	commands []CommandRecord
	nextID   int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]ProcessState),
		nextID: 1,
	}
}

// GetState returns the persisted state for a server.
func (m *MemoryStore) GetState(serverID string) (ProcessState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if state, ok := m.states[serverID]; ok {
		return state, nil
	}
	return ProcessState{ServerID: serverID, Status: "stopped"}, nil
}

// SaveRuntime records an active process handle.
func (m *MemoryStore) SaveRuntime(serverID string, pid int, startedAt time.Time, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pidCopy := pid
	startedCopy := startedAt
	m.states[serverID] = ProcessState{
		ServerID:  serverID,
		PID:       &pidCopy,
		StartedAt: &startedCopy,
		Status:    status,
	}
	return nil
}

// ClearRuntime drops the pid pair and records the final status.
func (m *MemoryStore) ClearRuntime(serverID string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[serverID] = ProcessState{ServerID: serverID, Status: status}
	return nil
}

// SetStatus updates the status without touching the pid pair.
func (m *MemoryStore) SetStatus(serverID string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[serverID]
	if !ok {
		state = ProcessState{ServerID: serverID}
	}
	state.Status = status
	m.states[serverID] = state
	return nil
}

// ListWithPID returns every server that still has a persisted pid.
func (m *MemoryStore) ListWithPID() ([]ProcessState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]ProcessState, 0)
	for _, state := range m.states {
		if state.PID != nil {
			states = append(states, state)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].ServerID < states[j].ServerID
	})
	return states, nil
}

// RecordCommand appends to the command history.
func (m *MemoryStore) RecordCommand(serverID, command string, success bool, executedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands = append(m.commands, CommandRecord{
		ID:         m.nextID,
		ServerID:   serverID,
		Command:    command,
		Success:    success,
		ExecutedAt: executedAt,
	})
	m.nextID++
	return nil
}

// RecentCommands returns the newest history entries for a server.
func (m *MemoryStore) RecentCommands(serverID string, limit int) ([]CommandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	commands := []CommandRecord{}
	for i := len(m.commands) - 1; i >= 0 && len(commands) < limit; i-- {
		if m.commands[i].ServerID == serverID {
			commands = append(commands, m.commands[i])
		}
	}
	return commands, nil
}
