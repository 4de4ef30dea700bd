package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points Load at a dotenv file inside a temp dir and clears the
// variables Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := EnvFile
	EnvFile = filepath.Join(dir, ".env")
	t.Cleanup(func() { EnvFile = old })
	for _, key := range []string{
		"STOCKROOM_DATA_DIR", "STOCKROOM_DB", "DB_PATH", "STOCKROOM_DB_ENABLED",
		"STOCKROOM_ADDR", "STOCKROOM_LOG", "STOCKROOM_DB_TIMEOUT", "STOCKROOM_QUEUE_SIZE",
		"STOCKROOM_SHUTDOWN_TIMEOUT", "STOCKROOM_DB_MAX_OPEN", "STOCKROOM_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults %+v, got %+v", Default(), cfg)
	}
	if got := cfg.DataFile(ItemsFile); got != filepath.Join("data", "inventory_data.json") {
		t.Errorf("expected data/inventory_data.json, got %s", got)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "stockroom.yaml")
	yml := "data_dir: /var/lib/stockroom\ndb_enabled: false\ndb_timeout: 750ms\nqueue_size: 32\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/var/lib/stockroom" {
		t.Errorf("expected /var/lib/stockroom, got %s", cfg.DataDir)
	}
	if cfg.DBEnabled {
		t.Error("expected database disabled")
	}
	if cfg.DBTimeout != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %s", cfg.DBTimeout)
	}
	if cfg.QueueSize != 32 {
		t.Errorf("expected queue size 32, got %d", cfg.QueueSize)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr, got %s", cfg.Addr)
	}
}

func TestLoadYAMLRejectsUnknownKeys(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "stockroom.yaml")
	if err := os.WriteFile(path, []byte("data_dri: typo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("expected empty file to be accepted, got %v", err)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "stockroom.yaml")
	if err := os.WriteFile(path, []byte("addr: \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKROOM_ADDR", "127.0.0.1:7000")
	t.Setenv("DB_PATH", "legacy.sqlite3")
	t.Setenv("STOCKROOM_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7000" {
		t.Errorf("expected env addr, got %s", cfg.Addr)
	}
	if cfg.DBPath != "legacy.sqlite3" {
		t.Errorf("expected DB_PATH fallback, got %s", cfg.DBPath)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected 30s, got %s", cfg.ShutdownTimeout)
	}

	t.Setenv("STOCKROOM_DB", "primary.sqlite3")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "primary.sqlite3" {
		t.Errorf("expected STOCKROOM_DB to win over DB_PATH, got %s", cfg.DBPath)
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	// godotenv never overrides variables that are already set, so unset the
	// one the file provides.
	os.Unsetenv("STOCKROOM_QUEUE_SIZE")
	t.Cleanup(func() { os.Unsetenv("STOCKROOM_QUEUE_SIZE") })
	if err := os.WriteFile(EnvFile, []byte("STOCKROOM_QUEUE_SIZE=64\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QueueSize != 64 {
		t.Errorf("expected queue size 64 from .env, got %d", cfg.QueueSize)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"STOCKROOM_DB_ENABLED", "maybe", "STOCKROOM_DB_ENABLED"},
		{"STOCKROOM_DB_TIMEOUT", "soon", "STOCKROOM_DB_TIMEOUT"},
		{"STOCKROOM_QUEUE_SIZE", "0", "queue size"},
		{"STOCKROOM_DB_MAX_OPEN", "-1", "max open"},
		{"STOCKROOM_LOG_LEVEL", "loud", "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	isolate(t)
	t.Setenv("STOCKROOM_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Level() != slog.LevelWarn {
		t.Errorf("expected WARN, got %s", cfg.Level())
	}
	if Default().Level() != slog.LevelInfo {
		t.Errorf("expected default INFO, got %s", Default().Level())
	}
}
