package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from config.yaml, a local .env file, and
// AGROMARKET_* environment variables, in increasing priority.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/agromarket/")

	v.SetEnvPrefix("AGROMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := loadDotEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.body_limit_bytes", 1<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "production")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/agromarket.db")

	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "agromarket")
	v.SetDefault("auth.audience", "agromarket-client")
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("security.login_rate_limit", 5)
	v.SetDefault("security.login_rate_window", "1m")
	v.SetDefault("security.api_rate_limit", 120)
	v.SetDefault("security.api_rate_window", "1m")
	v.SetDefault("security.allowed_origins", []string{"*"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "agromarket")
	v.SetDefault("metrics.subsystem", "http")

	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("uploads.dir", "uploads/products")
	v.SetDefault("uploads.max_size_bytes", 5<<20)
	v.SetDefault("uploads.retain_unused", "168h")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.low_stock_threshold", 10)
	v.SetDefault("jobs.low_stock_every", "6h")
	v.SetDefault("jobs.stalled_pending_after", "24h")
	v.SetDefault("jobs.stalled_processing_after", "48h")
	v.SetDefault("jobs.stalled_sweep_every", "4h")
	v.SetDefault("jobs.uploads_cleanup_cron", "0 3 * * *")

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.from_address", "orders@agromarket.local")
}

// loadDotEnv maps flat .env keys onto the hierarchical config, for
// deployments that predate config.yaml.
func loadDotEnv(v *viper.Viper) error {
	file := filepath.Clean(".env")
	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}

	envViper := viper.New()
	envViper.SetConfigFile(file)
	envViper.SetConfigType("env")
	if err := envViper.ReadInConfig(); err != nil {
		return fmt.Errorf("read .env: %w", err)
	}

	mappings := map[string]string{
		"HTTP_ADDR":        "http.addr",
		"SHUTDOWN_TIMEOUT": "http.shutdown_timeout",
		"LOG_LEVEL":        "log.level",
		"LOG_FORMAT":       "log.format",
		"DB_PATH":          "database.path",
		"AUTH_SIGNING_KEY": "auth.signing_key",
		"AUTH_TOKEN_TTL":   "auth.token_ttl",
		"UPLOADS_DIR":      "uploads.dir",
		"ADMIN_EMAIL":      "notify.admin_email",
	}
	for oldKey, newKey := range mappings {
		if val := envViper.GetString(oldKey); val != "" {
			v.Set(newKey, val)
		}
	}
	return nil
}
