// Package config provides configuration loading and defaults for insightwatch.
package config

import (
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
)

// DefaultConfigDir is the default location for insightwatch configuration.
const DefaultConfigDir = "~/.config/insightwatch"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "insightwatch.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment variable overrides, e.g.
// INSIGHTWATCH_SERVER_ADDR.
const EnvPrefix = "INSIGHTWATCH"

// DefaultThresholds are the rule sensitivities applied when a dataset does
// not override them.
var DefaultThresholds = insight.Thresholds{
	GrowthSignificant:   insight.DefaultGrowthSignificant,
	TrendStable:         insight.DefaultTrendStable,
	ConcentrationPareto: insight.DefaultConcentrationPareto,
	MinDataPoints:       insight.DefaultMinDataPoints,
	UpsellLiquidity:     insight.DefaultUpsellLiquidity,
	CashFlowRisk:        insight.DefaultCashFlowRisk,
}

// DefaultLimits caps the number of insights per domain. Domains not listed
// are uncapped.
var DefaultLimits = map[string]int{
	"clients": 5,
}

// DefaultDatabase uses the SQLite file under the config directory.
var DefaultDatabase = Database{
	Driver: DriverSQLite,
}

// DefaultRedis disables the cache until a URL is configured.
var DefaultRedis = Redis{
	TTL: 5 * time.Minute,
}

// DefaultServer holds the default HTTP listener settings.
var DefaultServer = Server{
	Addr:         ":8080",
	AllowOrigins: []string{"*"},
}

// DefaultLog holds the default logging settings.
var DefaultLog = Log{
	Level: "info",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
