package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearRelayEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"SPOOLMAIL_SMTP_LISTEN", "SPOOLMAIL_HTTP_LISTEN",
		"SMTP_RELAY_SERVER", "SMTP_RELAY_PORT",
		"SMTP_RELAY_USERNAME", "SMTP_RELAY_PASSWORD", "SMTP_RELAY_STARTTLS",
	} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearRelayEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Listen != ":1025" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":1025")
	}
	if cfg.SMTP.Hostname != "local-relay" {
		t.Errorf("SMTP.Hostname: got %q, want %q", cfg.SMTP.Hostname, "local-relay")
	}
	if cfg.HTTP.Listen != ":8025" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":8025")
	}
	if cfg.HTTP.PreviewLines != 20 {
		t.Errorf("HTTP.PreviewLines: got %d, want 20", cfg.HTTP.PreviewLines)
	}
	if cfg.Relay != nil {
		t.Errorf("Relay: got %+v, want nil", cfg.Relay)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("SPOOLMAIL_SMTP_LISTEN", ":2525")
	t.Setenv("SMTP_RELAY_SERVER", "smtp.example.com")
	t.Setenv("SMTP_RELAY_USERNAME", "relay@example.com")
	t.Setenv("SMTP_RELAY_PASSWORD", "hunter2")
	t.Setenv("SMTP_RELAY_STARTTLS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Listen != ":2525" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":2525")
	}
	if cfg.Relay == nil {
		t.Fatal("Relay: got nil, want configured relay")
	}
	if cfg.Relay.Host != "smtp.example.com" {
		t.Errorf("Relay.Host: got %q, want %q", cfg.Relay.Host, "smtp.example.com")
	}
	if got := cfg.Relay.Addr(); got != "smtp.example.com:587" {
		t.Errorf("Relay.Addr: got %q, want default port 587", got)
	}
	if cfg.Relay.Username != "relay@example.com" {
		t.Errorf("Relay.Username: got %q", cfg.Relay.Username)
	}
	if cfg.Relay.UseStartTLS() {
		t.Error("UseStartTLS: got true, want false after SMTP_RELAY_STARTTLS=0")
	}
}

func TestLoad_StartTLSDefaultsOn(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("SMTP_RELAY_SERVER", "smtp.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Relay == nil || !cfg.Relay.UseStartTLS() {
		t.Error("UseStartTLS: want true when SMTP_RELAY_STARTTLS is unset")
	}
}

func TestLoad_BadRelayPort(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("SMTP_RELAY_SERVER", "smtp.example.com")
	t.Setenv("SMTP_RELAY_PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed SMTP_RELAY_PORT")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearRelayEnv(t)

	content := []byte(`
smtp:
  listen: ":1125"
  hostname: "relay.test"
http:
  preview_lines: 5
relay:
  host: "smtp.file.example"
  port: 2587
  username: "file-user"
  password: "file-pass"
  starttls: false
`)
	path := filepath.Join(t.TempDir(), "spoolmail.yml")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Listen != ":1125" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":1125")
	}
	if cfg.SMTP.Hostname != "relay.test" {
		t.Errorf("SMTP.Hostname: got %q, want %q", cfg.SMTP.Hostname, "relay.test")
	}
	if cfg.HTTP.PreviewLines != 5 {
		t.Errorf("HTTP.PreviewLines: got %d, want 5", cfg.HTTP.PreviewLines)
	}
	if cfg.Relay == nil {
		t.Fatal("Relay: got nil, want configured relay")
	}
	if got := cfg.Relay.Addr(); got != "smtp.file.example:2587" {
		t.Errorf("Relay.Addr: got %q", got)
	}
	if cfg.Relay.UseStartTLS() {
		t.Error("UseStartTLS: got true, want false from file")
	}
}

func TestLoadFromFile_EnvWins(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("SMTP_RELAY_SERVER", "smtp.env.example")

	content := []byte("relay:\n  host: \"smtp.file.example\"\n")
	path := filepath.Join(t.TempDir(), "spoolmail.yml")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Relay == nil || cfg.Relay.Host != "smtp.env.example" {
		t.Errorf("Relay.Host: got %+v, want env value", cfg.Relay)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
