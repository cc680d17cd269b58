package reconnect

import (
	"log"

	"github.com/yourusername/fleet-manager/internal/adapter"
	"github.com/yourusername/fleet-manager/internal/store"
)

// Manager runs the boot-time orphan adoption scan. Servers that still have
// a persisted pid from a previous manager instance are either re-adopted by
// their adapter or marked stopped.
type Manager struct {
	store    store.Store
	adapters map[string]adapter.Adapter
}

// NewManager creates a reconnect manager over the fleet's adapters.
func NewManager(st store.Store, adapters map[string]adapter.Adapter) *Manager {
	return &Manager{store: st, adapters: adapters}
}

// Scan walks every server with a persisted pid, sequentially, and attempts
// adoption. Dead or unadoptable pids are cleared so the fleet state reflects
// reality before the API comes up. Returns the adopted and cleared counts.
func (m *Manager) Scan() (adopted, cleared int) {
	states, err := m.store.ListWithPID()
	if err != nil {
		log.Printf("[Reconnect] Failed to list persisted runtimes: %v", err)
		return 0, 0
	}

	for _, state := range states {
		pid := 0
		if state.PID != nil {
			pid = *state.PID
		}

		a, ok := m.adapters[state.ServerID]
		if !ok {
			log.Printf("[Reconnect] Server %s has persisted pid %d but no adapter, clearing", state.ServerID, pid)
			m.clear(state.ServerID)
			cleared++
			continue
		}

		if a.Reconnect(pid) {
			log.Printf("[Reconnect] Adopted server %s (pid %d)", state.ServerID, pid)
			adopted++
			continue
		}

		log.Printf("[Reconnect] Server %s (pid %d) is no longer running, clearing", state.ServerID, pid)
		m.clear(state.ServerID)
		cleared++
	}

	if adopted > 0 || cleared > 0 {
		log.Printf("[Reconnect] Scan complete: %d adopted, %d cleared", adopted, cleared)
	}
	return adopted, cleared
}

func (m *Manager) clear(serverID string) {
	if err := m.store.ClearRuntime(serverID, string(adapter.StatusStopped)); err != nil {
		log.Printf("[Reconnect] Failed to clear runtime for server %s: %v", serverID, err)
	}
}
