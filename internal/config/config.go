// Package config defines the application configuration and its loader.
package config

import "time"

// Config aggregates every runtime setting.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimitBytes  int64         `mapstructure:"body_limit_bytes"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	AddSource   bool   `mapstructure:"add_source"`
	Environment string `mapstructure:"environment"`
}

// DBConfig configures the SQLite database.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// AuthConfig configures token issuance and password hashing.
type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	Leeway     time.Duration `mapstructure:"leeway"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// SecurityConfig configures request throttling and CORS.
type SecurityConfig struct {
	LoginRateLimit  int           `mapstructure:"login_rate_limit"`
	LoginRateWindow time.Duration `mapstructure:"login_rate_window"`
	APIRateLimit    int           `mapstructure:"api_rate_limit"`
	APIRateWindow   time.Duration `mapstructure:"api_rate_window"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Subsystem string    `mapstructure:"subsystem"`
	Buckets   []float64 `mapstructure:"buckets"`
}

// CacheConfig configures the in-process cache.
type CacheConfig struct {
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// UploadsConfig configures product image storage.
type UploadsConfig struct {
	Dir          string        `mapstructure:"dir"`
	MaxSizeBytes int64         `mapstructure:"max_size_bytes"`
	RetainUnused time.Duration `mapstructure:"retain_unused"`
}

// JobsConfig configures the background schedules.
type JobsConfig struct {
	Enabled                bool          `mapstructure:"enabled"`
	LowStockThreshold      int64         `mapstructure:"low_stock_threshold"`
	LowStockEvery          time.Duration `mapstructure:"low_stock_every"`
	StalledPendingAfter    time.Duration `mapstructure:"stalled_pending_after"`
	StalledProcessingAfter time.Duration `mapstructure:"stalled_processing_after"`
	StalledSweepEvery      time.Duration `mapstructure:"stalled_sweep_every"`
	UploadsCleanupCron     string        `mapstructure:"uploads_cleanup_cron"`
}

// NotifyConfig configures order email notifications.
type NotifyConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	FromAddress string `mapstructure:"from_address"`
	AdminEmail  string `mapstructure:"admin_email"`
}
