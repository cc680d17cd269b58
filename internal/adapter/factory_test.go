package adapter

import (
	"errors"
	"testing"

	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/store"
)

func mockDefinition(id string) config.ServerDefinition {
	return config.ServerDefinition{ID: id, Name: id, Adapter: "mock"}
}

func TestFactorySelectsByType(t *testing.T) {
	defaults := config.SupervisorConfig{LogBufferSize: 10}
	st := store.NewMemoryStore()

	a, err := New(config.ServerDefinition{ID: "srv-1", Adapter: "process"}, defaults, st)
	if err != nil {
		t.Fatalf("process adapter: %v", err)
	}
	if _, ok := a.(*ProcessAdapter); !ok {
		t.Errorf("expected ProcessAdapter, got %T", a)
	}

	a, err = New(config.ServerDefinition{ID: "srv-2", Adapter: ""}, defaults, st)
	if err != nil {
		t.Fatalf("default adapter: %v", err)
	}
	if _, ok := a.(*ProcessAdapter); !ok {
		t.Errorf("expected ProcessAdapter for empty type, got %T", a)
	}

	a, err = New(mockDefinition("srv-3"), defaults, st)
	if err != nil {
		t.Fatalf("mock adapter: %v", err)
	}
	if _, ok := a.(*MockAdapter); !ok {
		t.Errorf("expected MockAdapter, got %T", a)
	}

	if _, err := New(config.ServerDefinition{ID: "srv-4", Adapter: "docker"}, defaults, st); err == nil {
		t.Error("expected error for unknown adapter type")
	}
}

func TestMockLifecycle(t *testing.T) {
	st := store.NewMemoryStore()
	m := NewMockAdapter(mockDefinition("srv-1"), config.SupervisorConfig{LogBufferSize: 10}, st)

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := m.GetStatus(); got != StatusRunning {
		t.Errorf("expected running, got %s", got)
	}
	if err := m.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	result := m.SendCommand("help")
	if !result.Success {
		t.Errorf("expected command success, got %+v", result)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	state, _ := st.GetState("srv-1")
	if state.Status != "stopped" || state.PID != nil {
		t.Errorf("expected persisted stopped state, got %+v", state)
	}
}

func TestMockReconnectDoesNotSpawn(t *testing.T) {
	st := store.NewMemoryStore()
	m := NewMockAdapter(mockDefinition("srv-1"), config.SupervisorConfig{LogBufferSize: 10}, st)

	if !m.Reconnect(4242) {
		t.Fatal("expected mock adoption to succeed")
	}
	if m.GetStatus() != StatusRunning {
		t.Errorf("expected running after adoption, got %s", m.GetStatus())
	}
	if m.SpawnCount() != 0 {
		t.Errorf("adoption must not spawn, spawn count %d", m.SpawnCount())
	}
	if m.GetPid() != 4242 {
		t.Errorf("expected adopted pid, got %d", m.GetPid())
	}
}

func TestServiceBoundaryRejections(t *testing.T) {
	m := NewMockAdapter(mockDefinition("srv-1"), config.SupervisorConfig{LogBufferSize: 10}, store.NewMemoryStore())

	if _, err := m.ListFiles("/"); !errors.Is(err, ErrFileService) {
		t.Errorf("expected ErrFileService, got %v", err)
	}
	if err := m.WriteFile("a.txt", nil); !errors.Is(err, ErrFileService) {
		t.Errorf("expected ErrFileService, got %v", err)
	}
	if _, err := m.CreateBackup("daily"); !errors.Is(err, ErrBackupService) {
		t.Errorf("expected ErrBackupService, got %v", err)
	}
	if err := m.InstallMod("some-mod"); !errors.Is(err, ErrModService) {
		t.Errorf("expected ErrModService, got %v", err)
	}
}
