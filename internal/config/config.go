package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the top-level insightwatch configuration.
type Config struct {
	Thresholds insight.Thresholds `mapstructure:"thresholds"`
	Limits     map[string]int     `mapstructure:"limits"`
	Database   Database           `mapstructure:"database"`
	Redis      Redis              `mapstructure:"redis"`
	Server     Server             `mapstructure:"server"`
	Log        Log                `mapstructure:"log"`
	Output     Output             `mapstructure:"output"`
}

// Database selects the record store.
type Database struct {
	Driver string `mapstructure:"driver"`
	// DSN is a file path for sqlite or a connection URL for postgres. An
	// empty sqlite DSN uses DBPath.
	DSN string `mapstructure:"dsn"`
}

// Redis configures the optional result cache. An empty URL disables it.
type Redis struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Limit returns the configured cap for a domain, or 0 for none.
func (c *Config) Limit(domain string) int {
	return c.Limits[domain]
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Environment variables
// prefixed with INSIGHTWATCH_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("thresholds.growth_significant", DefaultThresholds.GrowthSignificant)
	v.SetDefault("thresholds.trend_stable", DefaultThresholds.TrendStable)
	v.SetDefault("thresholds.concentration_pareto", DefaultThresholds.ConcentrationPareto)
	v.SetDefault("thresholds.min_data_points", DefaultThresholds.MinDataPoints)
	v.SetDefault("thresholds.upsell_liquidity", DefaultThresholds.UpsellLiquidity)
	v.SetDefault("thresholds.cash_flow_risk", DefaultThresholds.CashFlowRisk)
	v.SetDefault("limits", DefaultLimits)
	v.SetDefault("database.driver", DefaultDatabase.Driver)
	v.SetDefault("database.dsn", DefaultDatabase.DSN)
	v.SetDefault("redis.url", DefaultRedis.URL)
	v.SetDefault("redis.ttl", DefaultRedis.TTL)
	v.SetDefault("server.addr", DefaultServer.Addr)
	v.SetDefault("server.allow_origins", DefaultServer.AllowOrigins)
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("log.development", DefaultLog.Development)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
		if cfg.Database.DSN == "" {
			cfg.Database.DSN = DBPath()
		}
		cfg.Database.DSN = expandPath(cfg.Database.DSN)
	case DriverPostgres:
		if cfg.Database.DSN == "" {
			return nil, errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return &cfg, nil
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
