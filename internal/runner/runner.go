// Package runner applies configured defaults to datasets, generates their
// insights and assembles multi-domain dashboards. It is shared by the CLI
// and the HTTP server.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/blackwell-systems/insightwatch/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source provides stored records and dismissals.
type Source interface {
	LoadDataset(ctx context.Context, domain adapter.Domain, w adapter.Window, now time.Time) (adapter.Dataset, error)
	Dismissed(ctx context.Context, domain string) (map[string]bool, error)
}

// Runner generates insights with configured defaults.
type Runner struct {
	source     Source
	thresholds insight.Thresholds
	limits     map[string]int
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSource sets the record source used by FromSource and Dashboard.
func WithSource(s Source) Option {
	return func(r *Runner) { r.source = s }
}

// WithThresholds sets the thresholds applied where a dataset leaves one
// unset.
func WithThresholds(th insight.Thresholds) Option {
	return func(r *Runner) { r.thresholds = th }
}

// WithLimits sets per-domain caps applied when a dataset has no limit.
func WithLimits(limits map[string]int) Option {
	return func(r *Runner) { r.limits = limits }
}

// WithLogger sets the logger that receives rule faults.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithClock overrides the reference date used when a dataset has none.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasSource reports whether stored records are available.
func (r *Runner) HasSource() bool {
	return r.source != nil
}

// Prepare fills the unset reference date, thresholds and limit of ds.
func (r *Runner) Prepare(ds *adapter.Dataset) {
	if ds.Now.IsZero() {
		ds.Now = r.now()
	}
	ds.Thresholds = ds.Thresholds.Merge(r.thresholds)
	if ds.Limit == 0 {
		ds.Limit = r.limits[string(ds.Domain)]
	}
}

// Generate prepares ds and evaluates its domain. Rule faults are logged and
// skipped.
func (r *Runner) Generate(ds adapter.Dataset) ([]insight.Insight, error) {
	r.Prepare(&ds)
	logger := r.logger.With(zap.String("domain", string(ds.Domain)))
	return adapter.Generate(ds, insight.WithFaultHandler(func(f *insight.RuleFault) {
		logger.Warn("rule panicked", zap.String("rule", f.Rule), zap.Any("value", f.Value))
	}))
}

// FromSource loads the stored records of a domain, evaluates them and drops
// dismissed insights. A positive limit overrides the configured one.
func (r *Runner) FromSource(ctx context.Context, domain adapter.Domain, w adapter.Window, limit int) ([]insight.Insight, error) {
	if r.source == nil {
		return nil, fmt.Errorf("no record store configured")
	}
	ds, err := r.source.LoadDataset(ctx, domain, w, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("loading %s records: %w", domain, err)
	}
	ds.Limit = limit

	dismissed, err := r.source.Dismissed(ctx, string(domain))
	if err != nil {
		return nil, fmt.Errorf("loading %s dismissals: %w", domain, err)
	}

	// Dismissed insights must not use up the cap, so filter before truncating.
	r.Prepare(&ds)
	capped := ds.Limit
	if capped == 0 {
		capped = adapter.DefaultLimit(domain)
	}
	ds.Limit = -1
	all, err := r.Generate(ds)
	if err != nil {
		return nil, err
	}
	return insight.Truncate(store.FilterDismissed(all, dismissed), capped), nil
}

// Dashboard evaluates every domain concurrently from the source.
func (r *Runner) Dashboard(ctx context.Context, w adapter.Window) (map[adapter.Domain][]insight.Insight, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[adapter.Domain][]insight.Insight, len(adapter.Domains))
	for _, d := range adapter.Domains {
		g.Go(func() error {
			insights, err := r.FromSource(ctx, d, w, 0)
			if err != nil {
				return err
			}
			mu.Lock()
			out[d] = insights
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
