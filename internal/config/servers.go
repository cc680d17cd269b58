package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerDefinition represents a managed game server configuration
type ServerDefinition struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Adapter     string            `json:"adapter" yaml:"adapter"` // "process" or "mock"
	Server      GameServerConfig  `json:"server" yaml:"server"`
	Supervision SupervisionConfig `json:"supervision,omitempty" yaml:"supervision,omitempty"`
}

// GameServerConfig contains game server launch settings
type GameServerConfig struct {
	WorkingDirectory string   `json:"working_directory" yaml:"working_directory"`
	BinaryPath       string   `json:"binary_path" yaml:"binary_path"`
	EntryFile        string   `json:"entry_file,omitempty" yaml:"entry_file,omitempty"`
	BindAddress      string   `json:"bind_address,omitempty" yaml:"bind_address,omitempty"`
	MinMemoryMB      int      `json:"min_memory_mb,omitempty" yaml:"min_memory_mb,omitempty"`
	MaxMemoryMB      int      `json:"max_memory_mb,omitempty" yaml:"max_memory_mb,omitempty"`
	ExtraArgs        []string `json:"extra_args,omitempty" yaml:"extra_args,omitempty"`
}

// SupervisionConfig overrides fleet-wide supervision defaults for one server.
// Empty fields fall back to the manager's SupervisorConfig.
type SupervisionConfig struct {
	ReadinessMarker string `json:"readiness_marker,omitempty" yaml:"readiness_marker,omitempty"`
	StartupTimeout  string `json:"startup_timeout,omitempty" yaml:"startup_timeout,omitempty"`
	StopTimeout     string `json:"stop_timeout,omitempty" yaml:"stop_timeout,omitempty"`
	RestartDelay    string `json:"restart_delay,omitempty" yaml:"restart_delay,omitempty"`
	StopCommand     string `json:"stop_command,omitempty" yaml:"stop_command,omitempty"`
}

// LoadServers loads server definitions from the servers YAML file
func LoadServers(configDir string) ([]ServerDefinition, error) {
	serversPath := fmt.Sprintf("%s/servers.yaml", configDir)

	data, err := os.ReadFile(serversPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty list if file doesn't exist
			return []ServerDefinition{}, nil
		}
		return nil, fmt.Errorf("failed to read servers file: %w", err)
	}

	var serversFile struct {
		Servers []ServerDefinition `yaml:"servers"`
	}

	if err := yaml.Unmarshal(data, &serversFile); err != nil {
		return nil, fmt.Errorf("failed to parse servers file: %w", err)
	}

	// Validate server definitions
	for i := range serversFile.Servers {
		if err := ValidateServerDefinition(&serversFile.Servers[i]); err != nil {
			return nil, fmt.Errorf("invalid server definition at index %d: %w", i, err)
		}
	}

	return serversFile.Servers, nil
}

func ValidateServerDefinition(server *ServerDefinition) error {
	if server.ID == "" {
		return fmt.Errorf("server ID is required")
	}
	if server.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if server.Adapter == "" {
		server.Adapter = "process"
	}
	if server.Adapter != "process" && server.Adapter != "mock" {
		return fmt.Errorf("adapter must be 'process' or 'mock'")
	}
	if server.Adapter == "mock" {
		return nil
	}
	if server.Server.WorkingDirectory == "" {
		return fmt.Errorf("server working_directory is required")
	}
	if !isValidPath(server.Server.WorkingDirectory) {
		return fmt.Errorf("server working_directory contains invalid characters")
	}
	if server.Server.BinaryPath == "" {
		return fmt.Errorf("server binary_path is required")
	}
	if !isValidPath(server.Server.BinaryPath) {
		return fmt.Errorf("server binary_path contains invalid characters")
	}
	if server.Server.EntryFile != "" && !isValidPath(server.Server.EntryFile) {
		return fmt.Errorf("server entry_file contains invalid characters")
	}
	if server.Server.MinMemoryMB < 0 || server.Server.MaxMemoryMB < 0 {
		return fmt.Errorf("memory bounds must not be negative")
	}
	if server.Server.MaxMemoryMB > 0 && server.Server.MinMemoryMB > server.Server.MaxMemoryMB {
		return fmt.Errorf("min_memory_mb exceeds max_memory_mb")
	}
	for _, arg := range server.Server.ExtraArgs {
		if !isValidArgs(arg) {
			return fmt.Errorf("extra_args contains invalid characters")
		}
	}

	return nil
}

func isValidPath(s string) bool {
	// Block shell metacharacters that could allow command injection
	dangerous := ";|&$`()<>\"'\n"
	return !strings.ContainsAny(s, dangerous)
}

func isValidArgs(s string) bool {
	dangerous := ";|&`$()<>\\\n"
	return !strings.ContainsAny(s, dangerous)
}
