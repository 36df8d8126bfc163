// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
	if cfg.Server.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.SendTimeoutSeconds != 120 {
		t.Errorf("send_timeout_seconds = %d", cfg.Server.SendTimeoutSeconds)
	}
	if cfg.Chat.Mode != "general" {
		t.Errorf("mode = %q", cfg.Chat.Mode)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
version = "1.0.0"

[server]
base_url = "http://127.0.0.1:9999"
timeout_seconds = 10

[chat]
mode = "workspace"
model = "llama3.1:8b"
retrieval_strategy = "hybrid"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.BaseURL != "http://127.0.0.1:9999" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutSeconds != 10 {
		t.Errorf("timeout_seconds = %d", cfg.Server.TimeoutSeconds)
	}
	// Unspecified fields pick up defaults.
	if cfg.Server.SendTimeoutSeconds != 120 {
		t.Errorf("send_timeout_seconds = %d, want default 120", cfg.Server.SendTimeoutSeconds)
	}
	if cfg.Chat.Mode != "workspace" || cfg.Chat.Model != "llama3.1:8b" {
		t.Errorf("chat = %+v", cfg.Chat)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want default info", cfg.Log.Level)
	}
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
		field   string
	}{
		{"bad mode", "[chat]\nmode = \"cloud\"\n", "chat.mode"},
		{"bad strategy", "[chat]\nretrieval_strategy = \"psychic\"\n", "chat.retrieval_strategy"},
		{"bad theme", "[ui]\ntheme = \"solarized\"\n", "ui.theme"},
		{"bad url", "[server]\nbase_url = \"not a url\"\n", "server.base_url"},
		{"bad level", "[log]\nlevel = \"verbose\"\n", "log.level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".toml")
			if err := os.WriteFile(path, []byte(tc.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFromPath(path)
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.field)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error %q does not mention %s", err, tc.field)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Server.BaseURL = "http://localhost:8123"
	cfg.Chat.Model = "mistral:7b"
	cfg.Archive.RetentionDays = 90

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Server.BaseURL != cfg.Server.BaseURL {
		t.Errorf("base_url = %q", loaded.Server.BaseURL)
	}
	if loaded.Chat.Model != cfg.Chat.Model {
		t.Errorf("model = %q", loaded.Chat.Model)
	}
	if loaded.Archive.RetentionDays != 90 {
		t.Errorf("retention_days = %d", loaded.Archive.RetentionDays)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WORKBENCH_URL", "http://10.0.0.5:8000")
	t.Setenv("WORKBENCH_MODEL", "phi4:14b")
	t.Setenv("WORKBENCH_NO_ARCHIVE", "1")
	t.Setenv("WORKBENCH_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.BaseURL != "http://10.0.0.5:8000" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Chat.Model != "phi4:14b" {
		t.Errorf("model = %q", cfg.Chat.Model)
	}
	if cfg.Archive.Enabled {
		t.Error("archive should be disabled")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestGetSetDotNotation(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("chat.model", "qwen2.5:14b"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := cfg.Get("chat.model")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "qwen2.5:14b" {
		t.Errorf("chat.model = %v", got)
	}

	// String-to-typed conversion.
	if err := cfg.Set("server.timeout_seconds", "45"); err != nil {
		t.Fatalf("Set int: %v", err)
	}
	if cfg.Server.TimeoutSeconds != 45 {
		t.Errorf("timeout_seconds = %d", cfg.Server.TimeoutSeconds)
	}
	if err := cfg.Set("ui.markdown", "false"); err != nil {
		t.Fatalf("Set bool: %v", err)
	}
	if cfg.UI.Markdown {
		t.Error("markdown should be false")
	}

	if _, err := cfg.Get("no.such.key"); err == nil {
		t.Error("Get(unknown) should fail")
	}
	if err := cfg.Set("server.nope", "x"); err == nil {
		t.Error("Set(unknown) should fail")
	}
}

func TestGetAllKeysResolvable(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("key %q does not resolve: %v", key, err)
		}
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[chat]\nmode = \"general\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	changed := make(chan *Config, 1)
	w, err := WatchPath(path, func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("WatchPath: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[chat]\nmode = \"workspace\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changed:
		if cfg.Chat.Mode != "workspace" {
			t.Errorf("reloaded mode = %q", cfg.Chat.Mode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}
