// Package watcher re-evaluates stored records at an interval and emits
// alerts when insights appear or are resolved.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
)

// Alert levels.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelInfo     = "info"
)

// Alert represents a notable change between two evaluations.
type Alert struct {
	Level   string
	Domain  adapter.Domain
	Title   string
	Message string
	Time    time.Time
}

// Snapshot is the set of insights per domain at one point in time.
type Snapshot struct {
	Timestamp time.Time
	Insights  map[adapter.Domain][]insight.Insight
}

// Count returns the number of insights across domains.
func (s *Snapshot) Count() int {
	n := 0
	for _, list := range s.Insights {
		n += len(list)
	}
	return n
}

// DashboardFunc evaluates every domain.
type DashboardFunc func(ctx context.Context) (map[adapter.Domain][]insight.Insight, error)

// Watcher polls a dashboard at a regular interval and emits alerts when
// notable changes are detected.
type Watcher struct {
	dashboard     DashboardFunc
	interval      time.Duration
	previous      *Snapshot
	alertFn       func(Alert)
	lastAlertKeys map[string]bool
	now           func() time.Time
}

// New creates a Watcher.
func New(dashboard DashboardFunc, interval time.Duration, alertFn func(Alert)) *Watcher {
	return &Watcher{
		dashboard:     dashboard,
		interval:      interval,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
		now:           time.Now,
	}
}

// Run takes an initial snapshot, then checks at every interval. Blocks
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.previous == nil {
		initial, err := w.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("initial snapshot: %w", err)
		}
		w.previous = initial
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, a := range w.Check(ctx) {
				if w.alertFn != nil {
					w.alertFn(a)
				}
			}
		}
	}
}

// Prime sets the baseline snapshot without emitting alerts.
func (w *Watcher) Prime(ctx context.Context) (*Snapshot, error) {
	s, err := w.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	w.previous = s
	return s, nil
}

// Check takes a new snapshot, compares it against the previous one and
// returns the alerts. Identical alerts are suppressed until the data
// changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr, err := w.Snapshot(ctx)
	if err != nil {
		return []Alert{{
			Level:   LevelWarning,
			Title:   "Snapshot failed",
			Message: fmt.Sprintf("Could not evaluate stored records: %v", err),
			Time:    w.now(),
		}}
	}

	var raw []Alert
	if w.previous != nil {
		raw = Compare(w.previous, curr)
	}

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + string(a.Domain) + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = curr
	return alerts
}

// Snapshot evaluates the dashboard once.
func (w *Watcher) Snapshot(ctx context.Context) (*Snapshot, error) {
	board, err := w.dashboard(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Timestamp: w.now(), Insights: board}, nil
}
