package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Options{Dir: dir, EnvFile: filepath.Join(dir, "missing.env")})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.Session.Backend != BackendFile {
		t.Errorf("Session.Backend = %q, want %q", cfg.Session.Backend, BackendFile)
	}
	if cfg.Log.File != filepath.Join(dir, "cove.log") {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
	if cfg.SessionPath() != filepath.Join(dir, "session") {
		t.Errorf("SessionPath() = %q", cfg.SessionPath())
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty", cfg.File)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "api_url: https://cove.example/api\nsession:\n  backend: redis\n  redis_key: k\ngoogle:\n  client_id: from-file\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COVE_GOOGLE_CLIENT_ID", "from-env")
	t.Setenv("COVE_RATE_LIMIT", "2.5")

	cfg, err := Load(Options{Dir: dir, EnvFile: filepath.Join(dir, "missing.env")})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIURL != "https://cove.example/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Session.Backend != BackendRedis || cfg.Session.RedisKey != "k" {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Google.ClientID != "from-env" {
		t.Errorf("Google.ClientID = %q, want env to win", cfg.Google.ClientID)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.RateLimit)
	}
	if cfg.File == "" {
		t.Error("File should name the config that was read")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("COVE_DEV=true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("COVE_DEV") }) //nolint:errcheck

	cfg, err := Load(Options{Dir: dir, EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Dev {
		t.Error("Dev = false, want true from .env")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad url", "api_url: localhost:8080\n"},
		{"bad backend", "session:\n  backend: etcd\n"},
		{"negative rate", "rate_limit: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "cove.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(Options{Path: path, Dir: dir, EnvFile: filepath.Join(dir, "none")}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(Options{Path: filepath.Join(dir, "nope.yaml"), Dir: dir, EnvFile: filepath.Join(dir, "none")}); err == nil {
		t.Error("expected error for missing explicit config")
	}
}
