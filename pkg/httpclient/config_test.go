package httpclient

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadBaseConfigYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "client.yaml")
	content := `
base_url: " https://jsonplaceholder.typicode.com "
timeout_seconds: 7
auth_token: secret
headers:
  Accept: application/json
  X-Empty: "  "
basic_auth:
  username: " admin "
  password: pw
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write client config: %v", err)
	}

	cfg, err := LoadBaseConfig(file)
	if err != nil {
		t.Fatalf("LoadBaseConfig: %v", err)
	}
	if cfg.BaseURL != "https://jsonplaceholder.typicode.com" {
		t.Fatalf("unexpected base_url %q", cfg.BaseURL)
	}
	if cfg.Timeout != 7*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Timeout)
	}
	if len(cfg.Headers) != 1 || cfg.Headers["Accept"] != "application/json" {
		t.Fatalf("unexpected headers %#v", cfg.Headers)
	}
	if cfg.BasicAuth == nil || cfg.BasicAuth.Username != "admin" {
		t.Fatalf("unexpected basic auth %#v", cfg.BasicAuth)
	}
}

func TestLoadBaseConfigJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "client.json")
	if err := os.WriteFile(file, []byte(`{"base_url":"http://localhost:8080","headers":{"X-Test":"1"}}`), 0o644); err != nil {
		t.Fatalf("write client config: %v", err)
	}

	cfg, err := LoadBaseConfig(file)
	if err != nil {
		t.Fatalf("LoadBaseConfig: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8080" || cfg.Headers["X-Test"] != "1" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

func TestLoadBaseConfigRejectsInvalidBaseURL(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "client.yaml")
	if err := os.WriteFile(file, []byte("base_url: ftp://example.com\n"), 0o644); err != nil {
		t.Fatalf("write client config: %v", err)
	}

	if _, err := LoadBaseConfig(file); err == nil {
		t.Fatalf("expected invalid base_url error, got nil")
	}
}

func TestLoadBaseConfigEmptyPath(t *testing.T) {
	if _, err := LoadBaseConfig("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
