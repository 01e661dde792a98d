package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Auditor  AuditorConfig  `yaml:"auditor"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// WriteRateLimit caps POST /audit per client IP, in requests per minute.
	// Zero disables the limit.
	WriteRateLimit int `yaml:"write_rate_limit" env:"SERVER_WRITE_RATE_LIMIT" env-default:"0"`
}

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig selects and configures the chain store.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"DATABASE_DRIVER"             env-default:"postgres"`
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	SQLitePath      string        `yaml:"sqlite_path"        env:"DATABASE_SQLITE_PATH"        env-default:"./auditor.db"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// AuditorConfig holds write-path rules for the audit chains.
type AuditorConfig struct {
	OrderPolicy      string `yaml:"order_policy"       env:"AUDITOR_ORDER_POLICY"       env-default:"reject"`
	MaxDocumentBytes int    `yaml:"max_document_bytes" env:"AUDITOR_MAX_DOCUMENT_BYTES" env-default:"1048576"`
}

// TracingConfig holds OpenTelemetry export settings. Tracing is off unless
// Enabled is set.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"      env:"TRACING_ENABLED"      env-default:"false"`
	Endpoint    string  `yaml:"endpoint"     env:"TRACING_ENDPOINT"     env-default:"localhost:4318"`
	Insecure    bool    `yaml:"insecure"     env:"TRACING_INSECURE"     env-default:"true"`
	ServiceName string  `yaml:"service_name" env:"TRACING_SERVICE_NAME" env-default:"json-auditor"`
	SampleRatio float64 `yaml:"sample_ratio" env:"TRACING_SAMPLE_RATIO" env-default:"1.0"`
}
