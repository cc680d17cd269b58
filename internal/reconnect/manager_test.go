package reconnect

import (
	"testing"
	"time"

	"github.com/yourusername/fleet-manager/internal/adapter"
	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/store"
)

func newMock(t *testing.T, id string, st store.Store) *adapter.MockAdapter {
	t.Helper()
	def := config.ServerDefinition{ID: id, Name: id, Adapter: "mock"}
	return adapter.NewMockAdapter(def, config.SupervisorConfig{LogBufferSize: 10}, st)
}

func TestScanAdoptsLiveOrphans(t *testing.T) {
	st := store.NewMemoryStore()
	live := newMock(t, "srv-live", st)

	started := time.Now().Add(-time.Hour)
	if err := st.SaveRuntime("srv-live", 4242, started, "running"); err != nil {
		t.Fatal(err)
	}

	m := NewManager(st, map[string]adapter.Adapter{"srv-live": live})
	adopted, cleared := m.Scan()

	if adopted != 1 || cleared != 0 {
		t.Fatalf("expected 1 adopted 0 cleared, got %d/%d", adopted, cleared)
	}
	if live.GetStatus() != adapter.StatusRunning {
		t.Errorf("expected adopted server running, got %s", live.GetStatus())
	}
	if live.SpawnCount() != 0 {
		t.Errorf("adoption must not spawn, spawn count %d", live.SpawnCount())
	}
}

func TestScanClearsDeadOrphans(t *testing.T) {
	st := store.NewMemoryStore()
	dead := newMock(t, "srv-dead", st)

	// The mock treats a non-positive pid as a dead process
	if err := st.SaveRuntime("srv-dead", 0, time.Now(), "running"); err != nil {
		t.Fatal(err)
	}

	m := NewManager(st, map[string]adapter.Adapter{"srv-dead": dead})
	adopted, cleared := m.Scan()

	if adopted != 0 || cleared != 1 {
		t.Fatalf("expected 0 adopted 1 cleared, got %d/%d", adopted, cleared)
	}

	state, _ := st.GetState("srv-dead")
	if state.PID != nil || state.Status != "stopped" {
		t.Errorf("expected cleared stopped state, got %+v", state)
	}
}

func TestScanClearsUnknownServers(t *testing.T) {
	st := store.NewMemoryStore()
	if err := st.SaveRuntime("srv-gone", 1234, time.Now(), "running"); err != nil {
		t.Fatal(err)
	}

	m := NewManager(st, map[string]adapter.Adapter{})
	adopted, cleared := m.Scan()

	if adopted != 0 || cleared != 1 {
		t.Fatalf("expected 0 adopted 1 cleared, got %d/%d", adopted, cleared)
	}

	states, _ := st.ListWithPID()
	if len(states) != 0 {
		t.Errorf("expected no persisted pids after scan, got %v", states)
	}
}
