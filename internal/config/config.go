// Package config provides the configuration structure for the voicepro
// service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Defaults applied when optional configuration values are absent.
const (
	defaultListenAddr     = "127.0.0.1:8765"
	defaultEngineURL      = "http://localhost:7860"
	defaultTimeoutSeconds = 300
	defaultAppDirName     = ".voicepro"
)

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	AppDataDir  string `toml:"app_data_dir"`
}

// ServerConfig holds the configuration for the HTTP transport.
type ServerConfig struct {
	ListenAddr     string   `toml:"listen_addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// EngineConfig holds the configuration for the external model engine.
type EngineConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Config is the root configuration structure.
type Config struct {
	Paths  PathsConfig  `toml:"paths"`
	Server ServerConfig `toml:"server"`
	Engine EngineConfig `toml:"engine"`
}

// Load loads the configuration for the voicepro service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}

// GetListenAddr returns the HTTP bind address, falling back to the local
// default.
func (c *ServerConfig) GetListenAddr() string {
	if c.ListenAddr == "" {
		return defaultListenAddr
	}

	return c.ListenAddr
}

// GetServiceURL returns the model engine base URL, falling back to the local
// default.
func (e *EngineConfig) GetServiceURL() string {
	if e.URL == "" {
		return defaultEngineURL
	}

	return e.URL
}

// GetTimeout returns the engine request timeout.
func (e *EngineConfig) GetTimeout() time.Duration {
	seconds := e.TimeoutSeconds
	if seconds <= 0 {
		seconds = defaultTimeoutSeconds
	}

	return time.Duration(seconds) * time.Second
}

// ResolveAppDataDir returns the configured application data directory, or the
// per-user default (~/.voicepro) when unset.
func (p *PathsConfig) ResolveAppDataDir() (string, error) {
	if p.AppDataDir != "" {
		return p.AppDataDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user home directory: %w", err)
	}

	return filepath.Join(home, defaultAppDirName), nil
}
