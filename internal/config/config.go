// Package config loads hostprobe settings from ~/.hostprobe/config.yaml and
// the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the host agent's conventional listening port.
const DefaultPort = 7070

// Config holds client settings.
type Config struct {
	Server ServerConfig `yaml:"server"`
	// OperationsFile replaces the built-in operation table when set.
	OperationsFile string        `yaml:"operations_file,omitempty"`
	History        HistoryConfig `yaml:"history"`
	Debug          DebugConfig   `yaml:"debug"`
}

// ServerConfig describes the host agent and how long to wait for it.
type ServerConfig struct {
	Host            string        `yaml:"host,omitempty"`
	Port            int           `yaml:"port"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ResponseTimeout time.Duration `yaml:"response_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	MaxResponse     int           `yaml:"max_response"`
}

// HistoryConfig controls the exchange history database.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path defaults to history.db in the config directory.
	Path string `yaml:"path,omitempty"`
}

// DebugConfig controls debug log files.
type DebugConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ConnectTimeout:  10 * time.Second,
			WriteTimeout:    5 * time.Second,
			ResponseTimeout: 10 * time.Second,
			IdleTimeout:     500 * time.Millisecond,
			MaxResponse:     1 << 20,
		},
		History: HistoryConfig{Enabled: true},
		Debug:   DebugConfig{RetentionDays: 14},
	}
}

// Load reads config.yaml from the config directory, if present, and applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	path := filepath.Join(Dir(), "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if host := os.Getenv("HOSTPROBE_HOST"); host != "" {
		c.Server.Host = host
	}
	if portStr := os.Getenv("HOSTPROBE_PORT"); portStr != "" {
		port, err := ParsePort(portStr)
		if err != nil {
			return fmt.Errorf("HOSTPROBE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if ops := os.Getenv("HOSTPROBE_OPERATIONS"); ops != "" {
		c.OperationsFile = ops
	}
	return nil
}

// Address returns host:port for the configured server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// HistoryPath returns the history database location.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(Dir(), "history.db")
}

// ParsePort validates a TCP port number.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

// Dir returns the config directory: $HOSTPROBE_HOME, or ~/.hostprobe.
func Dir() string {
	if dir := os.Getenv("HOSTPROBE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".hostprobe")
	}
	return filepath.Join(home, ".hostprobe")
}

// DebugDir returns where debug log files are written.
func DebugDir() string {
	return filepath.Join(Dir(), "debug")
}

// PromptHistoryFile returns where line-editor history is kept.
func PromptHistoryFile() string {
	return filepath.Join(Dir(), "prompt_history")
}
