// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete workbench configuration.
type Config struct {
	Version string `toml:"version"`

	// Server is the backend connection configuration.
	Server ServerConfig `toml:"server"`

	// Chat holds per-request defaults applied to new conversations.
	Chat ChatConfig `toml:"chat"`

	// Archive configures the local conversation archive.
	Archive ArchiveConfig `toml:"archive"`

	// UI configures the terminal interface.
	UI UIConfig `toml:"ui"`

	// Log configures file logging.
	Log LogConfig `toml:"log"`
}

// ServerConfig contains backend connection settings.
type ServerConfig struct {
	// BaseURL is the root URL of the workspace backend.
	BaseURL string `toml:"base_url"`
	// TimeoutSeconds is the timeout for non-streaming requests.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// SendTimeoutSeconds bounds the wait for the first byte of a
	// streamed reply. The stream itself is not bounded once it starts.
	SendTimeoutSeconds int `toml:"send_timeout_seconds"`
}

// Timeout returns the non-streaming request timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// SendTimeout returns the initial-response timeout for streamed sends.
func (s ServerConfig) SendTimeout() time.Duration {
	return time.Duration(s.SendTimeoutSeconds) * time.Second
}

// ChatConfig contains chat defaults.
type ChatConfig struct {
	// Mode is the default chat mode: "general" or "workspace".
	Mode string `toml:"mode"`
	// Model is the default model name, empty lets the server decide.
	Model string `toml:"model"`
	// Temperature overrides sampling temperature when between 0 and 2.
	// A negative value means "use the server default".
	Temperature float64 `toml:"temperature"`
	// SystemPrompt is prepended to new conversations when set.
	SystemPrompt string `toml:"system_prompt"`
	// RetrievalStrategy selects the workspace retrieval pipeline.
	RetrievalStrategy string `toml:"retrieval_strategy"`
	// RecursiveRetrieval enables multi-hop retrieval in workspace mode.
	RecursiveRetrieval bool `toml:"recursive_retrieval"`
}

// ArchiveConfig contains local conversation archive settings.
type ArchiveConfig struct {
	// Enabled controls whether finished conversations are archived locally.
	Enabled bool `toml:"enabled"`
	// Path is the SQLite database path (empty = ~/.workbench/archive.db).
	Path string `toml:"path"`
	// RetentionDays prunes archived conversations older than this (0 = keep forever).
	RetentionDays int `toml:"retention_days"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowSources displays the sources panel after workspace answers.
	ShowSources bool `toml:"show_sources"`
	// ShowConfidence displays per-source and aggregate confidence markers.
	ShowConfidence bool `toml:"show_confidence"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
	// Markdown renders assistant replies as formatted markdown.
	Markdown bool `toml:"markdown"`
}

// LogConfig contains file logging configuration.
type LogConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level"`
	// Path is the log file path (empty = ~/.workbench/workbench.log).
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			BaseURL:            "http://127.0.0.1:8000",
			TimeoutSeconds:     30,
			SendTimeoutSeconds: 120,
		},

		Chat: ChatConfig{
			Mode:               string(model.ModeGeneral),
			Model:              "",
			Temperature:        -1, // server default
			RetrievalStrategy:  "hybrid_rerank",
			RecursiveRetrieval: false,
		},

		Archive: ArchiveConfig{
			Enabled:       true,
			RetentionDays: 0,
		},

		UI: UIConfig{
			Theme:          "dark",
			ShowSources:    true,
			ShowConfidence: true,
			CompactMode:    false,
			Markdown:       true,
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the workbench configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".workbench"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ArchivePath resolves the archive database path, falling back to the
// default location under the config directory.
func (c *Config) ArchivePath() (string, error) {
	if c.Archive.Path != "" {
		return c.Archive.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}

// LogPath resolves the log file path, falling back to the default
// location under the config directory.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workbench.log"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.workbench/config.toml, falling back
// to built-in defaults when the file is absent. Environment overrides
// are applied last, then defaults are filled and the result validated.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file. The write is atomic:
// a crash mid-save never leaves a truncated config behind.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# workbench configuration file")
	fmt.Fprintln(&buf, "# Generated by workbench - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: "must not be empty",
		})
	} else if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Server.BaseURL),
		})
	}

	if c.Server.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_seconds",
			Message: fmt.Sprintf("must be positive, got %d", c.Server.TimeoutSeconds),
		})
	}
	if c.Server.SendTimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "server.send_timeout_seconds",
			Message: fmt.Sprintf("must be positive, got %d", c.Server.SendTimeoutSeconds),
		})
	}

	if !model.Mode(strings.ToLower(c.Chat.Mode)).Valid() {
		errs = append(errs, ValidationError{
			Field:   "chat.mode",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: general, workspace", c.Chat.Mode),
		})
	}

	if c.Chat.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "chat.temperature",
			Message: fmt.Sprintf("must be at most 2.0, got %g", c.Chat.Temperature),
		})
	}

	validStrategies := map[string]bool{
		"vector": true, "bm25": true, "hybrid": true, "hybrid_rerank": true,
	}
	if c.Chat.RetrievalStrategy != "" && !validStrategies[strings.ToLower(c.Chat.RetrievalStrategy)] {
		errs = append(errs, ValidationError{
			Field:   "chat.retrieval_strategy",
			Message: fmt.Sprintf("invalid strategy '%s', must be one of: vector, bm25, hybrid, hybrid_rerank", c.Chat.RetrievalStrategy),
		})
	}

	if c.Archive.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "archive.retention_days",
			Message: "must be non-negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.TimeoutSeconds == 0 {
		c.Server.TimeoutSeconds = defaults.Server.TimeoutSeconds
	}
	if c.Server.SendTimeoutSeconds == 0 {
		c.Server.SendTimeoutSeconds = defaults.Server.SendTimeoutSeconds
	}
	if c.Chat.Mode == "" {
		c.Chat.Mode = defaults.Chat.Mode
	}
	if c.Chat.RetrievalStrategy == "" {
		c.Chat.RetrievalStrategy = defaults.Chat.RetrievalStrategy
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - WORKBENCH_URL: overrides server.base_url
//   - WORKBENCH_MODEL: overrides chat.model
//   - WORKBENCH_MODE: overrides chat.mode
//   - WORKBENCH_STRATEGY: overrides chat.retrieval_strategy
//   - WORKBENCH_NO_ARCHIVE: set to "1" or "true" to disable the archive
//   - WORKBENCH_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("WORKBENCH_URL"); u != "" {
		c.Server.BaseURL = u
	}
	if m := os.Getenv("WORKBENCH_MODEL"); m != "" {
		c.Chat.Model = m
	}
	if mode := os.Getenv("WORKBENCH_MODE"); mode != "" {
		c.Chat.Mode = mode
	}
	if strategy := os.Getenv("WORKBENCH_STRATEGY"); strategy != "" {
		c.Chat.RetrievalStrategy = strategy
	}
	if noArchive := os.Getenv("WORKBENCH_NO_ARCHIVE"); noArchive != "" {
		if noArchive == "1" || strings.ToLower(noArchive) == "true" {
			c.Archive.Enabled = false
		}
	}
	if level := os.Getenv("WORKBENCH_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "chat.model").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.base_url",
		"server.timeout_seconds",
		"server.send_timeout_seconds",
		"chat.mode",
		"chat.model",
		"chat.temperature",
		"chat.system_prompt",
		"chat.retrieval_strategy",
		"chat.recursive_retrieval",
		"archive.enabled",
		"archive.path",
		"archive.retention_days",
		"ui.theme",
		"ui.show_sources",
		"ui.show_confidence",
		"ui.compact_mode",
		"ui.markdown",
		"log.level",
		"log.path",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}
