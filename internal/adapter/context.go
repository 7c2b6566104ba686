package adapter

import (
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/shopspring/decimal"
)

// Uncategorized is the label given to entries without a category.
const Uncategorized = "Sin categoría"

// shortPeriod is the window length below which trend rules stay silent.
const shortPeriod = 60 * 24 * time.Hour

// Profile is the narrative vocabulary and polarity of one metric.
type Profile struct {
	Terms    insight.TermLabels
	Polarity insight.Polarity
}

var (
	profileIncome = Profile{
		Terms:    insight.TermLabels{Singular: "ingreso", Plural: "ingresos", VerbIncrease: "aumentaron", VerbDecrease: "disminuyeron"},
		Polarity: insight.IncreaseIsGood,
	}
	profileExpense = Profile{
		Terms:    insight.TermLabels{Singular: "gasto", Plural: "gastos", VerbIncrease: "aumentaron", VerbDecrease: "disminuyeron"},
		Polarity: insight.IncreaseIsBad,
	}
	profileMaterials = Profile{
		Terms:    insight.TermLabels{Singular: "gasto en materiales", Plural: "gastos en materiales", VerbIncrease: "aumentaron", VerbDecrease: "disminuyeron"},
		Polarity: insight.IncreaseIsBad,
	}
	profileGeneralCosts = Profile{
		Terms:    insight.TermLabels{Singular: "gasto general", Plural: "gastos generales", VerbIncrease: "aumentaron", VerbDecrease: "disminuyeron"},
		Polarity: insight.IncreaseIsBad,
	}
	profileSales = Profile{
		Terms:    insight.TermLabels{Singular: "cobro", Plural: "cobros", VerbIncrease: "aumentaron", VerbDecrease: "disminuyeron"},
		Polarity: insight.IncreaseIsGood,
	}
)

// BuildContext aggregates entries into a generic rule context.
//
// Entries dated inside the window are current and feed the totals, the
// monthly series and the category breakdown. Entries in the window of equal
// length before it feed PreviousCategoryData. With a zero window every entry
// is current. Entries without a date are skipped.
func BuildContext(entries []Entry, w Window, now time.Time, p Profile, th insight.Thresholds) *insight.Context {
	w = w.resolve(now)
	prevWindow := w.Previous()

	var current, previous []Entry
	for _, e := range entries {
		if e.Date.IsZero() {
			continue
		}
		switch {
		case w.IsZero() || w.Contains(e.Date):
			current = append(current, e)
		case prevWindow.Contains(e.Date):
			previous = append(previous, e)
		}
	}

	ctx := &insight.Context{
		MonthlyData:   monthly(current),
		CategoryData:  categories(current),
		PaymentCount:  len(current),
		Thresholds:    th,
		Terms:         p.Terms,
		Polarity:      p.Polarity,
		IsShortPeriod: !w.IsZero() && w.End.Sub(w.Start) < shortPeriod,
	}
	if !now.IsZero() {
		ctx.CurrentMonth = int(now.Month())
		ctx.CurrentYear = now.Year()
	}
	if len(previous) > 0 {
		ctx.PreviousCategoryData = categories(previous)
	}
	ctx.MonthCount = len(ctx.MonthlyData)

	total := decimal.Zero
	for _, e := range current {
		total = total.Add(e.Amount)
	}
	ctx.TotalValue = total.InexactFloat64()
	return ctx
}

// monthly groups entries by calendar month in ascending order. Months
// between the first and last entry that have none are emitted as zero so
// consecutive points are consecutive months. Balance is the running sum.
func monthly(entries []Entry) []insight.MonthlyPoint {
	points := make([]insight.MonthlyPoint, 0)
	if len(entries) == 0 {
		return points
	}

	sums := make(map[string]decimal.Decimal)
	var first, last time.Time
	for _, e := range entries {
		m := time.Date(e.Date.Year(), e.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		key := m.Format("2006-01")
		sums[key] = sums[key].Add(e.Amount)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
	}

	balance := decimal.Zero
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		value := sums[key]
		balance = balance.Add(value)
		points = append(points, insight.MonthlyPoint{
			Period:  key,
			Value:   value.InexactFloat64(),
			Balance: balance.InexactFloat64(),
		})
	}
	return points
}

// categories sums entries by label in first-seen order.
func categories(entries []Entry) []insight.CategoryValue {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, e := range entries {
		name := e.Category
		if name == "" {
			name = Uncategorized
		}
		if _, ok := sums[name]; !ok {
			order = append(order, name)
		}
		sums[name] = sums[name].Add(e.Amount)
	}

	out := make([]insight.CategoryValue, 0, len(order))
	for _, name := range order {
		out = append(out, insight.CategoryValue{Name: name, Value: sums[name].InexactFloat64()})
	}
	return out
}

// summaries converts clients to the float shape the rules read.
func summaries(clients []Client) []insight.ClientSummary {
	if len(clients) == 0 {
		return nil
	}
	out := make([]insight.ClientSummary, 0, len(clients))
	for _, c := range clients {
		out = append(out, insight.ClientSummary{
			ID:             c.ID,
			TotalCommitted: c.TotalCommitted.InexactFloat64(),
			TotalPaid:      c.TotalPaid.InexactFloat64(),
			BalanceDue:     c.BalanceDue().InexactFloat64(),
			CurrencyCode:   c.CurrencyCode,
		})
	}
	return out
}
