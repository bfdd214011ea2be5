package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the config file inside the data directory
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes environment overrides of config keys
	EnvPrefix = "DUCKCHAT_"

	PointerBackendSQLite = "sqlite"
	PointerBackendYAML   = "yaml"
)

// Config holds the user settings stored in config.yaml
type Config struct {
	MaxSavedSessionCount         int    `yaml:"max_saved_session_count"`
	AlwaysContinueLastSession    bool   `yaml:"always_continue_last_session"`
	InactiveSessionCutoffSeconds int    `yaml:"inactive_session_cutoff_time_in_seconds"`
	MaxMessagesPerRequest        int    `yaml:"max_messages_per_request"`
	ProtectActiveSessionOnPurge  bool   `yaml:"protect_active_session_on_purge"`
	PointerBackend               string `yaml:"pointer_backend"`
	Model                        string `yaml:"model"`
	APIBaseURL                   string `yaml:"api_base_url"`
	SystemMessage                string `yaml:"system_message"`
}

// configKeys lists every key EnsureConfig writes
var configKeys = []string{
	"max_saved_session_count",
	"always_continue_last_session",
	"inactive_session_cutoff_time_in_seconds",
	"max_messages_per_request",
	"protect_active_session_on_purge",
	"pointer_backend",
	"model",
	"api_base_url",
	"system_message",
}

// DefaultConfig returns the settings used for missing keys
func DefaultConfig() Config {
	return Config{
		MaxSavedSessionCount:         100,
		AlwaysContinueLastSession:    false,
		InactiveSessionCutoffSeconds: 10800,
		MaxMessagesPerRequest:        10,
		ProtectActiveSessionOnPurge:  false,
		PointerBackend:               PointerBackendSQLite,
		Model:                        "gpt-3.5-turbo",
		APIBaseURL:                   "",
		SystemMessage:                DefaultSystemMessage,
	}
}

// ConfigPath returns the config file location inside dataDir
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// EnsureConfig loads config.yaml from dataDir, writes back any missing keys
// with their defaults and applies environment overrides.
func EnsureConfig(dataDir string) (Config, error) {
	path := ConfigPath(dataDir)
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, &StorageError{Path: path, Op: "read config", Err: err}
	}

	missing := len(configKeys)
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
		}
		var present map[string]interface{}
		if err := yaml.Unmarshal(data, &present); err != nil {
			return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
		}
		missing = 0
		for _, key := range configKeys {
			if _, ok := present[key]; !ok {
				missing++
			}
		}
	}

	if missing > 0 {
		LogDebug("Writing %d default config keys to %s", missing, path)
		if err := SaveConfig(path, cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StorageError{Path: path, Op: "write config", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &StorageError{Path: path, Op: "write config", Err: err}
	}
	return nil
}

// Validate rejects settings the rest of the program cannot honor
func (c Config) Validate() error {
	if c.MaxSavedSessionCount < 0 {
		return fmt.Errorf("max_saved_session_count must not be negative, got %d", c.MaxSavedSessionCount)
	}
	if c.InactiveSessionCutoffSeconds < 0 {
		return fmt.Errorf("inactive_session_cutoff_time_in_seconds must not be negative, got %d", c.InactiveSessionCutoffSeconds)
	}
	if c.MaxMessagesPerRequest < 0 {
		return fmt.Errorf("max_messages_per_request must not be negative, got %d", c.MaxMessagesPerRequest)
	}
	switch c.PointerBackend {
	case PointerBackendSQLite, PointerBackendYAML:
	default:
		return fmt.Errorf("unknown pointer_backend %q (want %s or %s)", c.PointerBackend, PointerBackendSQLite, PointerBackendYAML)
	}
	return nil
}

// ResumePolicy builds the resume policy from the config
func (c Config) ResumePolicy() ResumePolicy {
	return ResumePolicy{
		AlwaysContinue:   c.AlwaysContinueLastSession,
		InactivityCutoff: time.Duration(c.InactiveSessionCutoffSeconds) * time.Second,
	}
}

// OpenPointerStore opens the pointer store selected by pointer_backend
func (c Config) OpenPointerStore(dataDir string) (PointerStore, error) {
	switch c.PointerBackend {
	case PointerBackendYAML:
		return NewYAMLPointerStore(filepath.Join(dataDir, "state.yaml")), nil
	default:
		store, err := NewSQLitePointerStore(filepath.Join(dataDir, "state.db"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func applyEnvOverrides(cfg *Config) error {
	var err error
	if cfg.MaxSavedSessionCount, err = parseIntEnv(envKey("max_saved_session_count"), cfg.MaxSavedSessionCount); err != nil {
		return err
	}
	if cfg.AlwaysContinueLastSession, err = parseBoolEnv(envKey("always_continue_last_session"), cfg.AlwaysContinueLastSession); err != nil {
		return err
	}
	if cfg.InactiveSessionCutoffSeconds, err = parseIntEnv(envKey("inactive_session_cutoff_time_in_seconds"), cfg.InactiveSessionCutoffSeconds); err != nil {
		return err
	}
	if cfg.MaxMessagesPerRequest, err = parseIntEnv(envKey("max_messages_per_request"), cfg.MaxMessagesPerRequest); err != nil {
		return err
	}
	if cfg.ProtectActiveSessionOnPurge, err = parseBoolEnv(envKey("protect_active_session_on_purge"), cfg.ProtectActiveSessionOnPurge); err != nil {
		return err
	}
	cfg.PointerBackend = getEnvOrDefault(envKey("pointer_backend"), cfg.PointerBackend)
	cfg.Model = getEnvOrDefault(envKey("model"), cfg.Model)
	cfg.APIBaseURL = getEnvOrDefault(envKey("api_base_url"), cfg.APIBaseURL)
	cfg.SystemMessage = getEnvOrDefault(envKey("system_message"), cfg.SystemMessage)
	return nil
}

func envKey(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
