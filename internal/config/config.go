// Package config loads application configuration from YAML and environment
// variables and initializes the global logger.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Overlay OverlayConfig `mapstructure:"overlay"`
	Enrich  EnrichConfig  `mapstructure:"enrich"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig names every directory the pipeline touches. Raw holds
// as-downloaded portal files; Clean holds transformed outputs.
type StorageConfig struct {
	RawDir   string `mapstructure:"raw_dir"`
	CleanDir string `mapstructure:"clean_dir"`
}

// FetchConfig configures the memoizing downloader.
type FetchConfig struct {
	UserAgent     string  `mapstructure:"user_agent"`
	TimeoutSecs   int     `mapstructure:"timeout_secs"`
	RatePerSec    float64 `mapstructure:"rate_per_sec"`
	ForceRepull   bool    `mapstructure:"force_repull"`
	MaxConcurrent int     `mapstructure:"max_concurrent"`
}

// OverlayConfig configures the tract-neighborhood overlay engine.
type OverlayConfig struct {
	// ExcludeMaxWater drops the tract whose water area equals the layer
	// maximum before overlaying. The 2010 Cook County tract file carries one
	// all-water Lake Michigan tract that breaks downstream joins.
	ExcludeMaxWater bool `mapstructure:"exclude_max_water"`
}

// EnrichConfig configures zone-membership feature derivation.
type EnrichConfig struct {
	// InterstateBufferFt is the buffer radius around interstate centerlines,
	// in the survey feet of the street layer's projected CRS. 1320 ft is a
	// quarter mile.
	InterstateBufferFt float64 `mapstructure:"interstate_buffer_ft"`
}

// StoreConfig selects the optional database backend for enriched layers.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load reads configuration from config.yaml (working directory, optional) and
// PARCELGEO_* environment variables, applying defaults for everything else.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PARCELGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("storage.raw_dir", filepath.Join(home, ".parcelgeo", "data_raw"))
	v.SetDefault("storage.clean_dir", filepath.Join(home, ".parcelgeo", "data_clean"))
	v.SetDefault("fetch.user_agent", "parcelgeo/1.0")
	v.SetDefault("fetch.timeout_secs", 300)
	v.SetDefault("fetch.rate_per_sec", 1.0)
	v.SetDefault("fetch.force_repull", false)
	v.SetDefault("fetch.max_concurrent", 4)
	v.SetDefault("overlay.exclude_max_water", true)
	v.SetDefault("enrich.interstate_buffer_ft", 1320.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", filepath.Join(home, ".parcelgeo", "parcelgeo.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		return eris.Errorf("config: unknown store driver %q (want sqlite, postgres, or none)", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url required when store.driver is postgres")
	}
	if c.Enrich.InterstateBufferFt <= 0 {
		return eris.Errorf("config: enrich.interstate_buffer_ft must be positive, got %v", c.Enrich.InterstateBufferFt)
	}
	if c.Fetch.RatePerSec <= 0 {
		return eris.Errorf("config: fetch.rate_per_sec must be positive, got %v", c.Fetch.RatePerSec)
	}
	return nil
}

// InitLogger builds a zap logger from cfg and installs it as the global
// logger. Callers retrieve component loggers with zap.L().
func InitLogger(cfg LogConfig) error {
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrapf(err, "config: invalid log level %q", cfg.Level)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
