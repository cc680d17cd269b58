package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Supervisor SupervisorConfig `yaml:"supervisor" json:"supervisor"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path           string `yaml:"path" json:"path"`
	MaxConnections int    `yaml:"max_connections" json:"max_connections"`
}

// StorageConfig contains storage paths
type StorageConfig struct {
	ConfigDir  string `yaml:"config_dir" json:"config_dir"`
	DataDir    string `yaml:"data_dir" json:"data_dir"`
	ServersDir string `yaml:"servers_dir" json:"servers_dir"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
}

// SupervisorConfig contains fleet-wide defaults for process supervision.
// Per-server definitions may override the marker, timeouts and stop command.
type SupervisorConfig struct {
	LogBufferSize   int    `yaml:"log_buffer_size" json:"log_buffer_size"`
	ReadinessMarker string `yaml:"readiness_marker" json:"readiness_marker"`
	StartupTimeout  string `yaml:"startup_timeout" json:"startup_timeout"`
	StopTimeout     string `yaml:"stop_timeout" json:"stop_timeout"`
	RestartDelay    string `yaml:"restart_delay" json:"restart_delay"`
	StopCommand     string `yaml:"stop_command" json:"stop_command"`
}

// StartupTimeoutDuration parses the startup timeout, falling back to 30s.
func (s SupervisorConfig) StartupTimeoutDuration() time.Duration {
	return parseDurationOr(s.StartupTimeout, 30*time.Second)
}

// StopTimeoutDuration parses the stop grace period, falling back to 30s.
func (s SupervisorConfig) StopTimeoutDuration() time.Duration {
	return parseDurationOr(s.StopTimeout, 30*time.Second)
}

// RestartDelayDuration parses the delay between stop and start on restart.
func (s SupervisorConfig) RestartDelayDuration() time.Duration {
	return parseDurationOr(s.RestartDelay, 3*time.Second)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Default configuration
	cfg := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path:           "./data/fleet-manager.db",
			MaxConnections: 25,
		},
		Storage: StorageConfig{
			ConfigDir:  "./configs",
			DataDir:    "./data",
			ServersDir: "./configs/servers",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			File:       "",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Supervisor: SupervisorConfig{
			LogBufferSize:   1000,
			ReadinessMarker: "Done (",
			StartupTimeout:  "30s",
			StopTimeout:     "30s",
			RestartDelay:    "3s",
			StopCommand:     "stop",
		},
	}

	// Load from config file if it exists
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = resolveConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		cfg.Storage.ConfigDir = configDir
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	if serversDir := os.Getenv("SERVERS_DIR"); serversDir != "" {
		cfg.Storage.ServersDir = serversDir
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	// Normalize storage paths based on config location
	cfg.normalizeStoragePaths(configPath)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database path must not be empty")
	}

	if c.Supervisor.LogBufferSize <= 0 {
		return fmt.Errorf("log_buffer_size must be positive")
	}

	for _, field := range []string{c.Supervisor.StartupTimeout, c.Supervisor.StopTimeout, c.Supervisor.RestartDelay} {
		if strings.TrimSpace(field) == "" {
			continue
		}
		if _, err := time.ParseDuration(field); err != nil {
			return fmt.Errorf("invalid supervisor duration %q: %w", field, err)
		}
	}

	return nil
}

func resolveConfigPath() string {
	candidates := []string{"../configs/config.yaml", "./configs/config.yaml"}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "./configs/config.yaml"
}

// GetConfigPath returns the resolved config path
func GetConfigPath() string {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = resolveConfigPath()
	}
	return configPath
}

// Save writes the configuration back to disk
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) normalizeStoragePaths(configPath string) {
	baseDir := filepath.Dir(configPath)
	if !filepath.IsAbs(baseDir) {
		if absBase, err := filepath.Abs(baseDir); err == nil {
			baseDir = absBase
		}
	}

	rootDir := baseDir
	if filepath.Base(baseDir) == "configs" {
		rootDir = filepath.Dir(baseDir)
	}

	resolvePath := func(value string) string {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return ""
		}
		if filepath.IsAbs(trimmed) {
			return filepath.Clean(trimmed)
		}
		return filepath.Clean(filepath.Join(rootDir, trimmed))
	}

	configDir := c.Storage.ConfigDir
	if strings.TrimSpace(configDir) == "" {
		configDir = baseDir
	}
	c.Storage.ConfigDir = resolvePath(configDir)

	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = filepath.Join(rootDir, "data")
	}
	c.Storage.DataDir = resolvePath(c.Storage.DataDir)

	if strings.TrimSpace(c.Storage.ServersDir) == "" {
		c.Storage.ServersDir = filepath.Join(c.Storage.ConfigDir, "servers")
	}
	c.Storage.ServersDir = resolvePath(c.Storage.ServersDir)
}
