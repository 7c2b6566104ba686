package adapter

import (
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
)

// EntriesInput is the data behind the single-series panels.
type EntriesInput struct {
	Entries    []Entry
	Window     Window
	Now        time.Time
	Thresholds insight.Thresholds
	// Limit caps the result. Zero keeps every insight.
	Limit int
}

// AdminInput is the data behind the platform analytics panel.
type AdminInput struct {
	KPIs  insight.PlatformKPIs
	Limit int
}

// GenerateMaterialsInsights analyzes material purchases.
func GenerateMaterialsInsights(in EntriesInput, opts ...insight.EngineOption) []insight.Insight {
	ctx := BuildContext(in.Entries, in.Window, in.Now, profileMaterials, in.Thresholds)
	return insight.NewEngine(insight.GenericRules, opts...).Run(ctx, in.Limit)
}

// GenerateGeneralCostsInsights analyzes overhead costs.
func GenerateGeneralCostsInsights(in EntriesInput, opts ...insight.EngineOption) []insight.Insight {
	ctx := BuildContext(in.Entries, in.Window, in.Now, profileGeneralCosts, in.Thresholds)
	return insight.NewEngine(insight.GenericRules, opts...).Run(ctx, in.Limit)
}

// GenerateFinanceInsights analyzes income and expenses as two series and
// ranks the union. Insight IDs carry an "income-" or "expense-" prefix so
// the two sides can be dismissed separately. Entries without a kind count
// as income.
func GenerateFinanceInsights(in EntriesInput, opts ...insight.EngineOption) []insight.Insight {
	var income, expense []Entry
	for _, e := range in.Entries {
		if e.Kind == KindExpense {
			expense = append(expense, e)
		} else {
			income = append(income, e)
		}
	}

	engine := insight.NewEngine(insight.GenericRules, opts...)
	incomeCtx := BuildContext(income, in.Window, in.Now, profileIncome, in.Thresholds)
	expenseCtx := BuildContext(expense, in.Window, in.Now, profileExpense, in.Thresholds)

	all := append(prefixed("income-", engine.Run(incomeCtx, 0)), prefixed("expense-", engine.Run(expenseCtx, 0))...)
	return insight.Truncate(insight.RankInsights(all), in.Limit)
}

// GenerateRealEstateInsights analyzes sale payments together with the
// liquidity position of each buyer.
func GenerateRealEstateInsights(in ClientsInput, opts ...insight.EngineOption) []insight.Insight {
	ctx := BuildContext(in.Payments, in.Window, in.Now, profileSales, in.Thresholds)
	ctx.ClientSummaries = summaries(in.Clients)
	return insight.NewEngine(insight.RealEstateRules, opts...).Run(ctx, in.Limit)
}

// GenerateAdminInsights evaluates the platform analytics rules.
func GenerateAdminInsights(in AdminInput, opts ...insight.EngineOption) []insight.Insight {
	kpis := in.KPIs
	return insight.NewEngine(insight.AdminRules, opts...).Run(&kpis, in.Limit)
}

func prefixed(prefix string, insights []insight.Insight) []insight.Insight {
	for i := range insights {
		insights[i].ID = prefix + insights[i].ID
	}
	return insights
}
