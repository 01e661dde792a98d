package config

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if c.Server.WriteRateLimit < 0 {
		return fmt.Errorf("server.write_rate_limit must be >= 0 (got %d)", c.Server.WriteRateLimit)
	}

	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := c.Auditor.validate(); err != nil {
		return fmt.Errorf("auditor: %w", err)
	}

	if c.Tracing.Enabled && (c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1) {
		return fmt.Errorf("tracing.sample_ratio must be in [0,1] (got %v)", c.Tracing.SampleRatio)
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))

	switch d.Driver {
	case DriverPostgres:
		if d.DSN == "" {
			return fmt.Errorf("dsn is required for the postgres driver")
		}
		if d.MinConns > d.MaxConns {
			return fmt.Errorf("min_conns (%d) must not exceed max_conns (%d)", d.MinConns, d.MaxConns)
		}
	case DriverSQLite:
		if d.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown driver %q (want postgres, sqlite or memory)", d.Driver)
	}
	return nil
}

func (a *AuditorConfig) validate() error {
	if !domain.OrderPolicy(a.OrderPolicy).IsValid() {
		return fmt.Errorf("order_policy must be %q or %q (got %q)", domain.OrderPolicyReject, domain.OrderPolicyLatest, a.OrderPolicy)
	}
	if a.MaxDocumentBytes <= 0 {
		return fmt.Errorf("max_document_bytes must be > 0 (got %d)", a.MaxDocumentBytes)
	}
	return nil
}
