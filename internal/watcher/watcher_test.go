package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
)

func in(id string, sev insight.Severity) insight.Insight {
	return insight.Insight{ID: id, Title: "title " + id, Description: "desc " + id, Severity: sev}
}

// sequence returns a dashboard that serves boards in order, repeating the
// last one.
func sequence(boards ...map[adapter.Domain][]insight.Insight) DashboardFunc {
	i := 0
	return func(context.Context) (map[adapter.Domain][]insight.Insight, error) {
		b := boards[i]
		if i < len(boards)-1 {
			i++
		}
		return b, nil
	}
}

// --- Compare ---

func TestCompare_NewInsights(t *testing.T) {
	prev := &Snapshot{Insights: map[adapter.Domain][]insight.Insight{}}
	curr := &Snapshot{Insights: map[adapter.Domain][]insight.Insight{
		adapter.DomainClients: {
			in("debtors", insight.SeverityCritical),
			in("upsell", insight.SeverityPositive),
		},
		adapter.DomainMaterials: {in("concentration-pareto", insight.SeverityWarning)},
	}}

	alerts := Compare(prev, curr)
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts))
	}

	want := []struct {
		level  string
		domain adapter.Domain
	}{
		{LevelCritical, adapter.DomainClients},
		{LevelInfo, adapter.DomainClients},
		{LevelWarning, adapter.DomainMaterials},
	}
	for i, w := range want {
		if alerts[i].Level != w.level || alerts[i].Domain != w.domain {
			t.Errorf("alert %d: expected %s/%s, got %s/%s", i, w.level, w.domain, alerts[i].Level, alerts[i].Domain)
		}
	}
	if alerts[0].Title != "title debtors" || alerts[0].Message != "desc debtors" {
		t.Errorf("expected insight title and description, got %q / %q", alerts[0].Title, alerts[0].Message)
	}
}

func TestCompare_Resolved(t *testing.T) {
	prev := &Snapshot{Insights: map[adapter.Domain][]insight.Insight{
		adapter.DomainFinance: {
			in("income-concentration-single", insight.SeverityCritical),
			in("income-sustained-trend-increase", insight.SeverityPositive),
		},
	}}
	curr := &Snapshot{Insights: map[adapter.Domain][]insight.Insight{}}

	alerts := Compare(prev, curr)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert for the resolved critical insight, got %d", len(alerts))
	}
	if alerts[0].Level != LevelInfo {
		t.Errorf("expected info level, got %s", alerts[0].Level)
	}
	if alerts[0].Title != "Resuelto: title income-concentration-single" {
		t.Errorf("unexpected title %q", alerts[0].Title)
	}
}

func TestCompare_Unchanged(t *testing.T) {
	board := map[adapter.Domain][]insight.Insight{
		adapter.DomainClients: {in("debtors", insight.SeverityCritical)},
	}
	if alerts := Compare(&Snapshot{Insights: board}, &Snapshot{Insights: board}); len(alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(alerts))
	}
}

// --- Watcher ---

func TestCheck_DeduplicatesAlerts(t *testing.T) {
	empty := map[adapter.Domain][]insight.Insight{}
	one := map[adapter.Domain][]insight.Insight{
		adapter.DomainClients: {in("debtors", insight.SeverityCritical)},
	}
	w := New(sequence(empty, one, empty, one), time.Minute, nil)

	if _, err := w.Prime(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerts := w.Check(context.Background()); len(alerts) != 1 || alerts[0].Level != LevelCritical {
		t.Fatalf("expected one critical alert, got %+v", alerts)
	}
	if alerts := w.Check(context.Background()); len(alerts) != 1 || alerts[0].Level != LevelInfo {
		t.Fatalf("expected one resolved alert, got %+v", alerts)
	}
	// Reappears: the previous cycle only had the resolved alert, so this one
	// is new again.
	if alerts := w.Check(context.Background()); len(alerts) != 1 {
		t.Fatalf("expected the alert again, got %+v", alerts)
	}
	// Same state as last cycle: nothing changed, nothing to report.
	if alerts := w.Check(context.Background()); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}

func TestCheck_SnapshotError(t *testing.T) {
	w := New(func(context.Context) (map[adapter.Domain][]insight.Insight, error) {
		return nil, errors.New("database is locked")
	}, time.Minute, nil)

	alerts := w.Check(context.Background())
	if len(alerts) != 1 || alerts[0].Level != LevelWarning {
		t.Fatalf("expected one warning alert, got %+v", alerts)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	board := map[adapter.Domain][]insight.Insight{}
	w := New(sequence(board), 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRun_EmitsAlerts(t *testing.T) {
	empty := map[adapter.Domain][]insight.Insight{}
	one := map[adapter.Domain][]insight.Insight{
		adapter.DomainAdmin: {in("churn-alert", insight.SeverityCritical)},
	}

	alerts := make(chan Alert, 4)
	w := New(sequence(empty, one), 5*time.Millisecond, func(a Alert) { alerts <- a })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case a := <-alerts:
		if a.Domain != adapter.DomainAdmin {
			t.Errorf("expected admin domain, got %s", a.Domain)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no alert emitted")
	}
	cancel()
	<-done
}

func TestSnapshot_Count(t *testing.T) {
	s := &Snapshot{Insights: map[adapter.Domain][]insight.Insight{
		adapter.DomainClients:   {in("a", insight.SeverityInfo), in("b", insight.SeverityInfo)},
		adapter.DomainMaterials: {in("c", insight.SeverityInfo)},
	}}
	if s.Count() != 3 {
		t.Errorf("expected 3, got %d", s.Count())
	}
}
