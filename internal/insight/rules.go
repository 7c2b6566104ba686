package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/blackwell-systems/insightwatch/internal/trend"
	"github.com/dustin/go-humanize"
)

// Priorities of the built-in rules. Lower ranks first.
const (
	PriorityConcentrationSingle = 5
	PriorityGrowthExplained     = 10
	PriorityConcentrationPareto = 20
	PrioritySustainedTrend      = 30
	PriorityYearEndProjection   = 35
	PriorityCashFlowRisk        = 40
	PriorityUpsellLiquidity     = 50
)

// minContributionShare is the share of the total change a single category
// must explain before GrowthExplained names it.
const minContributionShare = 0.25

// paretoMaxCategories is the most categories a concentration may span.
const paretoMaxCategories = 3

// paretoUndershoot is how far below the threshold the accumulated share may
// land before the concentration is discarded.
const paretoUndershoot = 10.0

// projectionLastMonth is the last month in which a year-end projection is
// still meaningful; from November on the rule stays silent.
const projectionLastMonth = 10

// GenericRules are the domain-agnostic rules every adapter runs.
var GenericRules = RuleSet[Context]{
	Name: "generic",
	Rules: []Rule[Context]{
		{Name: "growth-explained", Eval: GrowthExplained},
		{Name: "concentration", Eval: Concentration},
		{Name: "sustained-trend", Eval: SustainedTrend},
		{Name: "year-end-projection", Eval: YearEndProjection},
	},
}

// GrowthExplained attributes a period-over-period change of the total that
// exceeds the growth threshold to the category that moved the most in the
// same direction. A change exactly at the threshold is not significant.
func GrowthExplained(ctx *Context) *Insight {
	if len(ctx.PreviousCategoryData) == 0 {
		return nil
	}
	prevTotal := sumValues(ctx.PreviousCategoryData)
	if prevTotal == 0 {
		return nil
	}
	total := ctx.total()
	growth := (total - prevTotal) * 100 / prevTotal
	if math.Abs(growth) <= ctx.Thresholds.growthSignificant() {
		return nil
	}

	previous := make(map[string]float64, len(ctx.PreviousCategoryData))
	for _, c := range ctx.PreviousCategoryData {
		previous[c.Name] += c.Value
	}

	increase := growth > 0
	var (
		best  CategoryValue
		delta float64
		found bool
	)
	current := make(map[string]bool, len(ctx.CategoryData))
	for _, c := range ctx.CategoryData {
		current[c.Name] = true
		d := c.Value - previous[c.Name]
		if increase && d > 0 && (!found || d > delta) {
			best, delta, found = c, d, true
		}
		if !increase && d < 0 && (!found || d < delta) {
			best, delta, found = c, d, true
		}
	}
	// A category that vanished from the current period fell to zero.
	if !increase {
		for _, c := range ctx.PreviousCategoryData {
			if current[c.Name] {
				continue
			}
			current[c.Name] = true
			if d := -previous[c.Name]; d < 0 && (!found || d < delta) {
				best, delta, found = CategoryValue{Name: c.Name}, d, true
			}
		}
	}
	if !found {
		return nil
	}

	change := math.Abs(total - prevTotal)
	if math.Abs(delta) < change*minContributionShare {
		return nil
	}
	share := math.Abs(delta) / change * 100

	if increase {
		return &Insight{
			ID:       "growth-explained-increase",
			Title:    fmt.Sprintf("Aumento de %s explicado por %s", ctx.plural(), best.Name),
			Severity: SeverityWarning,
			Icon:     IconTrendingUp,
			Priority: PriorityGrowthExplained,
			Description: fmt.Sprintf(
				"Tus %s %s un %s respecto al período anterior. %s explica el %s del cambio.",
				ctx.plural(), ctx.verb(true), percent(growth), best.Name, percent(share),
			),
			Context: fmt.Sprintf("%s pasó de %s a %s.",
				best.Name, money(previous[best.Name]), money(best.Value)),
			ActionHint: fmt.Sprintf("Revisa los movimientos de %s para confirmar si el aumento es puntual o recurrente.", best.Name),
			Actions:    []Action{categoryFilter(best.Name)},
		}
	}
	return &Insight{
		ID:       "growth-explained-decrease",
		Title:    fmt.Sprintf("Disminución de %s concentrada en %s", ctx.plural(), best.Name),
		Severity: SeverityInfo,
		Icon:     IconTrendingDown,
		Priority: PriorityGrowthExplained,
		Description: fmt.Sprintf(
			"Tus %s %s un %s respecto al período anterior. %s explica el %s del cambio.",
			ctx.plural(), ctx.verb(false), percent(math.Abs(growth)), best.Name, percent(share),
		),
		Context: fmt.Sprintf("%s pasó de %s a %s.",
			best.Name, money(previous[best.Name]), money(best.Value)),
		Actions: []Action{categoryFilter(best.Name)},
	}
}

// Concentration reports when at most three categories make up the Pareto
// share of the total.
func Concentration(ctx *Context) *Insight {
	if len(ctx.CategoryData) < 2 {
		return nil
	}
	total := sumValues(ctx.CategoryData)
	if total == 0 {
		return nil
	}

	sorted := make([]CategoryValue, len(ctx.CategoryData))
	copy(sorted, ctx.CategoryData)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	threshold := ctx.Thresholds.concentrationPareto()
	var accumulated float64
	needed := 0
	for _, c := range sorted {
		accumulated += c.Value / total * 100
		needed++
		if accumulated >= threshold {
			break
		}
	}
	if needed > paretoMaxCategories {
		return nil
	}
	if accumulated < threshold-paretoUndershoot {
		return nil
	}

	top := sorted[0]
	topShare := top.Value / total * 100

	if needed == 1 {
		return &Insight{
			ID:       "concentration-single",
			Title:    fmt.Sprintf("Una sola categoría concentra tus %s", ctx.plural()),
			Severity: SeverityCritical,
			Icon:     IconPieChart,
			Priority: PriorityConcentrationSingle,
			Description: fmt.Sprintf("%s representa el %s del total de %s.",
				top.Name, percent(topShare), ctx.plural()),
			Context:    "Depender de una sola categoría aumenta la exposición ante cualquier variación.",
			ActionHint: fmt.Sprintf("Evalúa alternativas para %s o negocia mejores condiciones.", top.Name),
			Actions:    []Action{categoryFilter(top.Name)},
		}
	}
	return &Insight{
		ID:       "concentration-pareto",
		Title:    fmt.Sprintf("%d categorías concentran el %s de tus %s", needed, percent(accumulated), ctx.plural()),
		Severity: SeverityWarning,
		Icon:     IconPieChart,
		Priority: PriorityConcentrationPareto,
		Description: fmt.Sprintf("El %s de tus %s se concentra en %d categorías.",
			percent(accumulated), ctx.plural(), needed),
		Context:    fmt.Sprintf("%s lidera con el %s del total.", top.Name, percent(topShare)),
		ActionHint: fmt.Sprintf("Empieza por %s: es donde un cambio tiene más impacto.", top.Name),
		Actions:    []Action{categoryFilter(top.Name)},
	}
}

// SustainedTrend reports a consistent month-over-month movement.
func SustainedTrend(ctx *Context) *Insight {
	th := ctx.Thresholds
	if ctx.MonthCount < th.minDataPoints() || ctx.IsShortPeriod {
		return nil
	}
	res := trend.Detect(monthlyValues(ctx.MonthlyData), th.minDataPoints(), th.trendStable())
	if res == nil || res.Direction == trend.Stable || res.Confidence == trend.ConfidenceLow {
		return nil
	}
	if math.Abs(res.MonthlyChangePercent) < th.growthSignificant()/3 {
		return nil
	}

	increase := res.Direction == trend.Increasing
	id, title, icon := "sustained-trend-decrease", fmt.Sprintf("Tendencia sostenida a la baja en %s", ctx.plural()), IconTrendingDown
	if increase {
		id, title, icon = "sustained-trend-increase", fmt.Sprintf("Tendencia sostenida al alza en %s", ctx.plural()), IconTrendingUp
	}
	return &Insight{
		ID:       id,
		Title:    title,
		Severity: polaritySeverity(ctx, increase),
		Icon:     icon,
		Priority: PrioritySustainedTrend,
		Description: fmt.Sprintf("Tus %s %s en promedio un %s mensual durante los últimos %d meses.",
			ctx.plural(), ctx.verb(increase), percent(math.Abs(res.MonthlyChangePercent)), res.DataPoints),
		Context: fmt.Sprintf("Confianza %s: la dirección se mantuvo en la mayoría de los meses.", confidenceLabel(res.Confidence)),
	}
}

// YearEndProjection extrapolates the year-to-date series to December.
func YearEndProjection(ctx *Context) *Insight {
	th := ctx.Thresholds
	if ctx.CurrentMonth > projectionLastMonth || ctx.CurrentMonth < 1 {
		return nil
	}
	if ctx.IsShortPeriod || ctx.MonthCount < th.minDataPoints() {
		return nil
	}

	points := ctx.MonthlyData
	if ctx.CurrentYear > 0 {
		points = periodsOfYear(points, ctx.CurrentYear)
	}
	values := monthlyValues(points)
	if len(values) > ctx.CurrentMonth {
		values = values[len(values)-ctx.CurrentMonth:]
	}
	p := trend.ProjectYearEnd(values, ctx.CurrentMonth, th.minDataPoints(), th.trendStable())
	if p == nil || p.Direction == trend.Stable {
		return nil
	}
	if math.Abs(p.ChangePercent) < th.growthSignificant()/3 {
		return nil
	}

	increase := p.Direction == trend.Increasing
	id, where := "year-end-projection-decrease", "por debajo"
	if increase {
		id, where = "year-end-projection-increase", "por encima"
	}
	return &Insight{
		ID:       id,
		Title:    fmt.Sprintf("Proyección de cierre de año para %s", ctx.plural()),
		Severity: polaritySeverity(ctx, increase),
		Icon:     IconCalendar,
		Priority: PriorityYearEndProjection,
		Description: fmt.Sprintf("Al ritmo actual, tus %s cerrarían el año un %s %s del promedio proyectado.",
			ctx.plural(), percent(math.Abs(p.ChangePercent)), where),
		Context: fmt.Sprintf("Proyección anual: %s frente a %s. Quedan %d %s.",
			money(p.ProjectedTotal), money(p.Baseline), p.MonthsRemaining, plural(p.MonthsRemaining, "mes", "meses")),
	}
}

// polaritySeverity maps a direction to a severity using the context polarity.
func polaritySeverity(ctx *Context, increase bool) Severity {
	if increase == ctx.increaseIsGood() {
		return SeverityPositive
	}
	return SeverityWarning
}

// periodsOfYear keeps the points whose "YYYY-MM" period falls in year.
func periodsOfYear(points []MonthlyPoint, year int) []MonthlyPoint {
	prefix := fmt.Sprintf("%04d-", year)
	var out []MonthlyPoint
	for _, p := range points {
		if strings.HasPrefix(p.Period, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func monthlyValues(points []MonthlyPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}

func categoryFilter(name string) Action {
	return Action{
		ID:      "filter-category",
		Label:   fmt.Sprintf("Ver %s", name),
		Type:    ActionFilter,
		Payload: map[string]any{"category": name},
	}
}

func confidenceLabel(c trend.Confidence) string {
	switch c {
	case trend.ConfidenceHigh:
		return "alta"
	case trend.ConfidenceMedium:
		return "media"
	default:
		return "baja"
	}
}

// percent renders a rounded percentage, e.g. "80%".
func percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v)))
}

// money renders a rounded amount with thousands separators.
func money(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
