// Package store provides SQL persistence for imported domain records,
// generated insight runs and dismissals. SQLite is the default backend and
// PostgreSQL is available through pgx.
package store

import (
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one stored evaluation of a domain.
type Run struct {
	ID           string            `json:"id"`
	Domain       string            `json:"domain"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Version      string            `json:"version"`
	InsightCount int               `json:"insight_count"`
	Insights     []insight.Insight `json:"insights,omitempty"`
}

// ImportResult summarizes an ImportDataset call.
type ImportResult struct {
	Domain  string `json:"domain"`
	Entries int    `json:"entries"`
	Clients int    `json:"clients"`
	KPIs    bool   `json:"kpis"`
	// Skipped counts entries without a date.
	Skipped int `json:"skipped"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
