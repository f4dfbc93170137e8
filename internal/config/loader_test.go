package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from an empty directory so no project .agno.yaml interferes,
	// and point HOME away from any real user config.
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "auto" {
		t.Fatalf("log defaults wrong: %+v", cfg.Log)
	}
	if cfg.Endpoint.WSURL != "ws://localhost:7777/workflows/ws" {
		t.Fatalf("ws_url default wrong: %s", cfg.Endpoint.WSURL)
	}
	if cfg.Realtime.MaxReconnectAttempts != 3 || cfg.Realtime.MaxAuthAttempts != 2 {
		t.Fatalf("attempt limits wrong: %+v", cfg.Realtime)
	}
	if cfg.Relay.Port != 7788 || !cfg.Relay.EnableCORS {
		t.Fatalf("relay defaults wrong: %+v", cfg.Relay)
	}
	if cfg.Archive.Enabled {
		t.Fatalf("archive should default to disabled")
	}
	if got := cfg.Realtime.HandshakeTimeoutDuration(); got != 10*time.Second {
		t.Fatalf("handshake timeout: %v", got)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".agno.yaml")
	content := `
log:
  level: debug
endpoint:
  ws_url: wss://prod.example.com/workflows/ws
  security_key: sk-123
realtime:
  max_reconnect_attempts: 5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	loader := NewLoader().WithConfigFile(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("file value not loaded: %s", cfg.Log.Level)
	}
	if cfg.Endpoint.WSURL != "wss://prod.example.com/workflows/ws" || cfg.Endpoint.SecurityKey != "sk-123" {
		t.Fatalf("endpoint not loaded: %+v", cfg.Endpoint)
	}
	if cfg.Realtime.MaxReconnectAttempts != 5 {
		t.Fatalf("override not applied: %d", cfg.Realtime.MaxReconnectAttempts)
	}
	// Untouched keys keep their defaults.
	if cfg.Endpoint.APIURL != "http://localhost:7777" {
		t.Fatalf("default lost on partial file: %s", cfg.Endpoint.APIURL)
	}
	if loader.ConfigFile() != path {
		t.Fatalf("ConfigFile: %s", loader.ConfigFile())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".agno.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("AGNO_LOG_LEVEL", "error")
	t.Setenv("AGNO_ENDPOINT_API_URL", "http://env.example.com")

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("env should beat file: %s", cfg.Log.Level)
	}
	if cfg.Endpoint.APIURL != "http://env.example.com" {
		t.Fatalf("env should beat default: %s", cfg.Endpoint.APIURL)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".agno.yaml")
	if err := os.WriteFile(path, []byte("endpoint:\n  ws_url: ftp://bad\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := NewLoader().WithConfigFile(path).Load(); err == nil {
		t.Fatalf("expected validation error for ftp ws_url")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := NewLoader().WithConfigFile("/nonexistent/.agno.yaml").Load(); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
