package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config represents the user's configuration
type Config struct {
	ServerURL string `json:"server_url"`          // phone-agent backend base URL
	DeviceID  string `json:"device_id,omitempty"` // preferred device serial
	Language  string `json:"language,omitempty"`  // "cn" or "en", display only
	LoopCount int    `json:"loop_count,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ServerURL: "http://127.0.0.1:8000",
		Language:  "cn",
		LoopCount: 1,
	}
}

// configDir returns the config directory path (~/.autoglm-tui)
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".autoglm-tui"), nil
}

// configPath returns the config file path (~/.autoglm-tui/config.json)
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LogPath returns the file the TUI logs to. The terminal belongs to the UI,
// so nothing may log to stdout or stderr while the program runs.
func LogPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "autoglm-tui.log"), nil
}

// Load reads the config from disk, falling back to defaults when no file
// exists yet.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config exists, return default (don't auto-create)
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultConfig().ServerURL
	}
	if cfg.LoopCount < 1 {
		cfg.LoopCount = 1
	}
	return &cfg, nil
}

// Save writes the config to ~/.autoglm-tui/config.json
func Save(cfg *Config) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
