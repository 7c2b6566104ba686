package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/cache"
	"github.com/blackwell-systems/insightwatch/internal/runner"
	"github.com/blackwell-systems/insightwatch/internal/store"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// domainTitles are the section headers printed per domain.
var domainTitles = map[adapter.Domain]string{
	adapter.DomainClients:      "Clientes",
	adapter.DomainMaterials:    "Materiales",
	adapter.DomainGeneralCosts: "Gastos generales",
	adapter.DomainFinance:      "Finanzas",
	adapter.DomainRealEstate:   "Inmobiliaria",
	adapter.DomainAdmin:        "Plataforma",
}

// openStore connects to the configured record store.
func openStore(ctx context.Context) (*store.DB, error) {
	db, err := store.Connect(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// openCache connects to Redis when a URL is configured. An unreachable
// server disables caching instead of failing the command.
func openCache(ctx context.Context) *cache.Cache {
	if cfg.Redis.URL == "" {
		return nil
	}
	c, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.TTL)
	if err != nil {
		logger.Warn("continuing without redis cache", zap.Error(err))
		return nil
	}
	return c
}

// newRunner builds a runner from the loaded configuration. src may be nil.
func newRunner(src runner.Source, now time.Time) *runner.Runner {
	opts := []runner.Option{
		runner.WithThresholds(cfg.Thresholds),
		runner.WithLimits(cfg.Limits),
		runner.WithLogger(logger),
	}
	if src != nil {
		opts = append(opts, runner.WithSource(src))
	}
	if !now.IsZero() {
		opts = append(opts, runner.WithClock(func() time.Time { return now }))
	}
	return runner.New(opts...)
}

// readDataset decodes a dataset file. Files ending in .json are read as
// JSON and anything else as YAML. A path of "-" reads stdin as YAML, which
// also accepts JSON.
func readDataset(path string) (adapter.Dataset, error) {
	var ds adapter.Dataset

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return ds, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &ds)
	} else {
		err = yaml.Unmarshal(data, &ds)
	}
	if err != nil {
		return ds, fmt.Errorf("decoding %s: %w", path, err)
	}
	return ds, nil
}

// resolveDomain picks the domain from the argument, falling back to the
// dataset's own.
func resolveDomain(arg string, fallback adapter.Domain) (adapter.Domain, error) {
	if arg == "" {
		arg = string(fallback)
	}
	if arg == "" {
		return "", fmt.Errorf("no domain given (one of %s)", domainList())
	}
	return adapter.ParseDomain(arg)
}

func domainList() string {
	names := make([]string, len(adapter.Domains))
	for i, d := range adapter.Domains {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

// parseDate reads a YYYY-MM-DD flag value. Empty yields the zero time.
func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", flag, value)
	}
	return t, nil
}

// parseWindow builds a window from --from and --to. The to date is
// inclusive.
func parseWindow(from, to string) (adapter.Window, error) {
	start, err := parseDate("from", from)
	if err != nil {
		return adapter.Window{}, err
	}
	end, err := parseDate("to", to)
	if err != nil {
		return adapter.Window{}, err
	}
	if !end.IsZero() {
		end = end.AddDate(0, 0, 1)
	}
	return adapter.Window{Start: start, End: end}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
