package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
  write_timeout: "15s"
  idle_timeout: "30s"
  shutdown_timeout: "5s"

database:
  driver: "postgres"
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2
  auto_migrate: true

log:
  level: "debug"
  format: "text"

auditor:
  order_policy: "latest"
  max_document_bytes: 2048

tracing:
  enabled: true
  endpoint: "otel-collector:4318"
  service_name: "auditor-test"
  sample_ratio: 0.5
`

// validConfig returns a Config that passes validation.
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			DSN:      "postgres://u:p@localhost:5432/testdb",
			MaxConns: 25,
			MinConns: 5,
		},
		Log:     LogConfig{Level: "info", Format: "json"},
		Auditor: AuditorConfig{OrderPolicy: "reject", MaxDocumentBytes: 1 << 20},
		Tracing: TracingConfig{SampleRatio: 1},
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Server
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want %v", cfg.Server.ReadTimeout, 5*time.Second)
	}

	// Database
	if cfg.Database.DSN != "postgres://u:p@localhost:5432/testdb" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("database.auto_migrate should be true")
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want %q", cfg.Log.Format, "text")
	}

	// Auditor
	if cfg.Auditor.OrderPolicy != "latest" {
		t.Errorf("auditor.order_policy = %q, want latest", cfg.Auditor.OrderPolicy)
	}
	if cfg.Auditor.MaxDocumentBytes != 2048 {
		t.Errorf("auditor.max_document_bytes = %d, want 2048", cfg.Auditor.MaxDocumentBytes)
	}

	// Tracing
	if !cfg.Tracing.Enabled {
		t.Error("tracing.enabled should be true")
	}
	if cfg.Tracing.ServiceName != "auditor-test" {
		t.Errorf("tracing.service_name = %q", cfg.Tracing.ServiceName)
	}
	if cfg.Tracing.SampleRatio != 0.5 {
		t.Errorf("tracing.sample_ratio = %v, want 0.5", cfg.Tracing.SampleRatio)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("AUDITOR_ORDER_POLICY", "reject")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000 (ENV override)", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
	if cfg.Auditor.OrderPolicy != "reject" {
		t.Errorf("auditor.order_policy = %q, want reject (ENV override)", cfg.Auditor.OrderPolicy)
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
	t.Setenv("CONFIG_PATH", "")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080 (default)", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("database.driver = %q, want postgres (default)", cfg.Database.Driver)
	}
	if cfg.Auditor.OrderPolicy != "reject" {
		t.Errorf("auditor.order_policy = %q, want reject (default)", cfg.Auditor.OrderPolicy)
	}
	if cfg.Auditor.MaxDocumentBytes != 1<<20 {
		t.Errorf("auditor.max_document_bytes = %d, want 1 MiB (default)", cfg.Auditor.MaxDocumentBytes)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"negative write rate limit", func(c *Config) { c.Server.WriteRateLimit = -1 }, "write_rate_limit"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unknown driver"},
		{"postgres without dsn", func(c *Config) { c.Database.DSN = "" }, "dsn is required"},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 50 }, "min_conns"},
		{"sqlite without path", func(c *Config) {
			c.Database.Driver = DriverSQLite
			c.Database.SQLitePath = ""
		}, "sqlite_path"},
		{"unknown order policy", func(c *Config) { c.Auditor.OrderPolicy = "first" }, "order_policy"},
		{"zero document limit", func(c *Config) { c.Auditor.MaxDocumentBytes = 0 }, "max_document_bytes"},
		{"sample ratio above one", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.SampleRatio = 1.5
		}, "sample_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidate_MemoryDriverNeedsNothing(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "MEMORY"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("driver should be normalised to %q, got %q", DriverMemory, cfg.Database.Driver)
	}
}

func TestLoadFrom_OptionalMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", DriverMemory)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("database.driver = %q, want memory (ENV)", cfg.Database.Driver)
	}

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"), true); err == nil {
		t.Fatal("expected error for required missing file")
	}
}
