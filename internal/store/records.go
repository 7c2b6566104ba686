package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportDataset stores the records of a dataset under its domain. Entries
// and clients with an existing ID are replaced; entries without an ID get a
// new UUID. KPIs are appended as a new snapshot.
func (db *DB) ImportDataset(ctx context.Context, ds adapter.Dataset) (*ImportResult, error) {
	res := &ImportResult{Domain: string(ds.Domain)}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range ds.Entries {
		if e.Date.IsZero() {
			res.Skipped++
			continue
		}
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := db.exec(ctx, tx,
			`INSERT INTO entries (id, domain, entry_date, amount, category, client_id, kind, currency_code)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				domain = excluded.domain, entry_date = excluded.entry_date, amount = excluded.amount,
				category = excluded.category, client_id = excluded.client_id, kind = excluded.kind,
				currency_code = excluded.currency_code`,
			id, string(ds.Domain), formatTime(e.Date), e.Amount.String(), e.Category,
			e.ClientID, string(e.Kind), e.CurrencyCode,
		); err != nil {
			return nil, fmt.Errorf("inserting entry %s: %w", id, err)
		}
		res.Entries++
	}

	for _, c := range ds.Clients {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, err := db.exec(ctx, tx,
			`INSERT INTO clients (domain, id, name, total_committed, total_paid, currency_code)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (domain, id) DO UPDATE SET
				name = excluded.name, total_committed = excluded.total_committed,
				total_paid = excluded.total_paid, currency_code = excluded.currency_code`,
			string(ds.Domain), c.ID, c.Name, c.TotalCommitted.String(), c.TotalPaid.String(), c.CurrencyCode,
		); err != nil {
			return nil, fmt.Errorf("inserting client %s: %w", c.ID, err)
		}
		res.Clients++
	}

	if ds.KPIs != nil {
		body, err := json.Marshal(ds.KPIs)
		if err != nil {
			return nil, err
		}
		if _, err := db.exec(ctx, tx,
			"INSERT INTO kpi_snapshots (id, recorded_at, body) VALUES (?, ?, ?)",
			uuid.NewString(), formatTime(time.Now()), string(body),
		); err != nil {
			return nil, fmt.Errorf("inserting kpi snapshot: %w", err)
		}
		res.KPIs = true
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// LoadDataset rebuilds a dataset for domain from stored records. The admin
// domain reads the latest KPI snapshot; every other domain reads entries
// and clients.
func (db *DB) LoadDataset(ctx context.Context, domain adapter.Domain, w adapter.Window, now time.Time) (adapter.Dataset, error) {
	ds := adapter.Dataset{Domain: domain, Window: w, Now: now}

	if domain == adapter.DomainAdmin {
		kpis, err := db.LatestKPIs(ctx)
		if err != nil {
			return ds, err
		}
		ds.KPIs = kpis
		return ds, nil
	}

	entries, err := db.Entries(ctx, string(domain))
	if err != nil {
		return ds, err
	}
	clients, err := db.Clients(ctx, string(domain))
	if err != nil {
		return ds, err
	}
	ds.Entries = entries
	ds.Clients = clients
	return ds, nil
}

// Entries returns every stored entry of a domain in date order.
func (db *DB) Entries(ctx context.Context, domain string) ([]adapter.Entry, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(
		`SELECT id, entry_date, amount, category, client_id, kind, currency_code
		 FROM entries WHERE domain = ? ORDER BY entry_date, id`),
		domain,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []adapter.Entry
	for rows.Next() {
		var e adapter.Entry
		var date, amount, kind string
		if err := rows.Scan(&e.ID, &date, &amount, &e.Category, &e.ClientID, &kind, &e.CurrencyCode); err != nil {
			return nil, err
		}
		e.Date = parseTime(date)
		e.Amount = parseDecimal(amount)
		e.Kind = adapter.Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clients returns every stored client of a domain ordered by ID.
func (db *DB) Clients(ctx context.Context, domain string) ([]adapter.Client, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(
		`SELECT id, name, total_committed, total_paid, currency_code
		 FROM clients WHERE domain = ? ORDER BY id`),
		domain,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var clients []adapter.Client
	for rows.Next() {
		var c adapter.Client
		var committed, paid string
		if err := rows.Scan(&c.ID, &c.Name, &committed, &paid, &c.CurrencyCode); err != nil {
			return nil, err
		}
		c.TotalCommitted = parseDecimal(committed)
		c.TotalPaid = parseDecimal(paid)
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// LatestKPIs returns the most recent KPI snapshot, or nil if none exist.
func (db *DB) LatestKPIs(ctx context.Context) (*insight.PlatformKPIs, error) {
	var body string
	err := db.conn.QueryRowContext(ctx,
		"SELECT body FROM kpi_snapshots ORDER BY recorded_at DESC LIMIT 1",
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var kpis insight.PlatformKPIs
	if err := json.Unmarshal([]byte(body), &kpis); err != nil {
		return nil, fmt.Errorf("decoding kpi snapshot: %w", err)
	}
	return &kpis, nil
}

// parseDecimal coerces a malformed stored amount to zero.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
