package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/google/uuid"
)

// SaveRun records the insights generated for a domain and returns the run.
func (db *DB) SaveRun(ctx context.Context, domain, version string, insights []insight.Insight) (*Run, error) {
	run := &Run{
		ID:           uuid.NewString(),
		Domain:       domain,
		GeneratedAt:  time.Now().UTC(),
		Version:      version,
		InsightCount: len(insights),
		Insights:     insights,
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := db.exec(ctx, tx,
		"INSERT INTO runs (id, domain, generated_at, version, insight_count) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Domain, formatTime(run.GeneratedAt), run.Version, run.InsightCount,
	); err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}

	for i, in := range insights {
		body, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		if _, err := db.exec(ctx, tx,
			`INSERT INTO run_insights (run_id, seq, insight_id, severity, priority, body)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, in.ID, string(in.Severity), in.EffectivePriority(), string(body),
		); err != nil {
			return nil, fmt.Errorf("inserting insight %s: %w", in.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestRun returns the most recent run of a domain with its insights, or
// nil if none exist. An empty domain matches any domain.
func (db *DB) LatestRun(ctx context.Context, domain string) (*Run, error) {
	runs, err := db.ListRuns(ctx, domain, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	run := runs[0]
	run.Insights, err = db.RunInsights(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first, without their insights.
// An empty domain matches any domain.
func (db *DB) ListRuns(ctx context.Context, domain string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := "SELECT id, domain, generated_at, version, insight_count FROM runs"
	args := []any{}
	if domain != "" {
		query += " WHERE domain = ?"
		args = append(args, domain)
	}
	query += " ORDER BY generated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var generatedAt string
		if err := rows.Scan(&r.ID, &r.Domain, &generatedAt, &r.Version, &r.InsightCount); err != nil {
			return nil, err
		}
		r.GeneratedAt = parseTime(generatedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunInsights returns the insights of a run in their ranked order.
func (db *DB) RunInsights(ctx context.Context, runID string) ([]insight.Insight, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(
		"SELECT body FROM run_insights WHERE run_id = ? ORDER BY seq"),
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var insights []insight.Insight
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var in insight.Insight
		if err := json.Unmarshal([]byte(body), &in); err != nil {
			return nil, fmt.Errorf("decoding insight of run %s: %w", runID, err)
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// Dismiss hides an insight ID for a domain until it is undismissed.
func (db *DB) Dismiss(ctx context.Context, domain, insightID string) error {
	_, err := db.exec(ctx, db.conn,
		`INSERT INTO dismissals (domain, insight_id, dismissed_at) VALUES (?, ?, ?)
		ON CONFLICT (domain, insight_id) DO UPDATE SET dismissed_at = excluded.dismissed_at`,
		domain, insightID, formatTime(time.Now()),
	)
	return err
}

// Undismiss removes a dismissal. Removing an absent dismissal is not an
// error.
func (db *DB) Undismiss(ctx context.Context, domain, insightID string) error {
	_, err := db.exec(ctx, db.conn,
		"DELETE FROM dismissals WHERE domain = ? AND insight_id = ?",
		domain, insightID,
	)
	return err
}

// Dismissed returns the set of dismissed insight IDs for a domain.
func (db *DB) Dismissed(ctx context.Context, domain string) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(
		"SELECT insight_id FROM dismissals WHERE domain = ?"),
		domain,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// FilterDismissed drops insights whose ID is in dismissed. The input is
// not modified.
func FilterDismissed(insights []insight.Insight, dismissed map[string]bool) []insight.Insight {
	out := make([]insight.Insight, 0, len(insights))
	for _, in := range insights {
		if !dismissed[in.ID] {
			out = append(out, in)
		}
	}
	return out
}
