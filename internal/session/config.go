package session

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the session configuration, loadable from environment
// variables (ZIPPY_ prefix), flags, or YAML config files.
type Config struct {
	DataDir     string `default:"data" usage:"Directory for durable local snapshots and the order log" flag:"data-dir"`
	DatabaseURL string `usage:"PostgreSQL connection URL for remote sync; empty disables sync (ZIPPY_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SessionID   string `default:"" usage:"Stable session identifier; generated when empty" flag:"session-id"`
	Debounce    DebounceConfig
	CouponCache CouponCacheConfig
	Health      HealthConfig
}

// HealthConfig controls the background persistence health probes.
type HealthConfig struct {
	Interval time.Duration `default:"15s" usage:"How often persistence health probes run"`
}

// DebounceConfig controls snapshot write coalescing.
type DebounceConfig struct {
	Window time.Duration `default:"1s" usage:"Quiet period before a snapshot write is flushed"`
}

// CouponCacheConfig controls the read-through coupon registry cache.
type CouponCacheConfig struct {
	TTL time.Duration `default:"30s" usage:"How long a coupon lookup stays cached"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ZIPPY",
		Files:     []string{"config.yaml", "/etc/zippycart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL to the ZIPPY_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
}
