package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveConfigPathPrefersParentConfigs(t *testing.T) {
	root := t.TempDir()
	configsDir := filepath.Join(root, "configs")
	if err := os.MkdirAll(configsDir, 0755); err != nil {
		t.Fatalf("failed to create configs dir: %v", err)
	}
	configPath := filepath.Join(configsDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  host: 0.0.0.0\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	workDir := filepath.Join(root, "backend")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	defer func() {
		_ = os.Chdir(cwd)
	}()

	if err := os.Chdir(workDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}

	resolved := resolveConfigPath()
	if resolved != "../configs/config.yaml" {
		t.Fatalf("expected ../configs/config.yaml, got %s", resolved)
	}
}

func TestNormalizeStoragePathsDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.normalizeStoragePaths("configs/config.yaml")

	if cfg.Storage.ConfigDir == "" {
		t.Fatalf("expected ConfigDir to be set")
	}
	if cfg.Storage.DataDir == "" {
		t.Fatalf("expected DataDir to be set")
	}
	if cfg.Storage.ServersDir == "" {
		t.Fatalf("expected ServersDir to be set")
	}
}

func TestSupervisorDurationFallbacks(t *testing.T) {
	sup := SupervisorConfig{}
	if got := sup.StartupTimeoutDuration(); got != 30*time.Second {
		t.Errorf("expected 30s default startup timeout, got %v", got)
	}
	if got := sup.StopTimeoutDuration(); got != 30*time.Second {
		t.Errorf("expected 30s default stop timeout, got %v", got)
	}
	if got := sup.RestartDelayDuration(); got != 3*time.Second {
		t.Errorf("expected 3s default restart delay, got %v", got)
	}

	sup = SupervisorConfig{StartupTimeout: "2s", StopTimeout: "garbage", RestartDelay: "-1s"}
	if got := sup.StartupTimeoutDuration(); got != 2*time.Second {
		t.Errorf("expected 2s startup timeout, got %v", got)
	}
	if got := sup.StopTimeoutDuration(); got != 30*time.Second {
		t.Errorf("expected fallback for unparsable stop timeout, got %v", got)
	}
	if got := sup.RestartDelayDuration(); got != 3*time.Second {
		t.Errorf("expected fallback for negative restart delay, got %v", got)
	}
}

func TestValidateServerDefinition(t *testing.T) {
	def := ServerDefinition{
		ID:   "srv-1",
		Name: "Survival",
		Server: GameServerConfig{
			WorkingDirectory: "/opt/game/srv-1",
			BinaryPath:       "java",
			EntryFile:        "server.jar",
			MinMemoryMB:      1024,
			MaxMemoryMB:      2048,
		},
	}

	if err := ValidateServerDefinition(&def); err != nil {
		t.Fatalf("expected valid definition, got %v", err)
	}
	if def.Adapter != "process" {
		t.Errorf("expected adapter to default to 'process', got %q", def.Adapter)
	}

	bad := def
	bad.Server.BinaryPath = "java; rm -rf /"
	if err := ValidateServerDefinition(&bad); err == nil {
		t.Error("expected error for binary path with shell metacharacters")
	}

	bad = def
	bad.Server.MinMemoryMB = 4096
	if err := ValidateServerDefinition(&bad); err == nil {
		t.Error("expected error when min memory exceeds max memory")
	}

	mock := ServerDefinition{ID: "m1", Name: "Mock", Adapter: "mock"}
	if err := ValidateServerDefinition(&mock); err != nil {
		t.Errorf("mock adapter should not require launch settings: %v", err)
	}
}

func TestServerManager_CRUD(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewServerManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	newServer := ServerDefinition{
		ID:   "test-server-1",
		Name: "Test Server",
		Server: GameServerConfig{
			WorkingDirectory: "/opt/game/test",
			BinaryPath:       "java",
			EntryFile:        "server.jar",
		},
	}

	if err := manager.Add(newServer); err != nil {
		t.Errorf("Failed to add server: %v", err)
	}
	if err := manager.Save(); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	retrieved, found := manager.GetByID("test-server-1")
	if !found {
		t.Error("Server not found after adding")
	}
	if retrieved.Name != "Test Server" {
		t.Errorf("Expected name 'Test Server', got '%s'", retrieved.Name)
	}

	// Create new manager to read from disk
	manager2, err := NewServerManager(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, found := manager2.GetByID("test-server-1"); !found {
		t.Error("Server not persisted to disk")
	}

	newServer.Name = "Updated Name"
	if err := manager.Update(newServer); err != nil {
		t.Errorf("Failed to update server: %v", err)
	}

	updated, _ := manager.GetByID("test-server-1")
	if updated.Name != "Updated Name" {
		t.Error("Update did not persist in memory")
	}

	if err := manager.Delete("test-server-1"); err != nil {
		t.Errorf("Failed to delete server: %v", err)
	}

	if _, found := manager.GetByID("test-server-1"); found {
		t.Error("Server still exists after deletion")
	}
}
