package insight

import "fmt"

// RealEstateRules extends GenericRules with the client liquidity rules used
// for property sales.
var RealEstateRules = GenericRules.With("real-estate",
	Rule[Context]{Name: "upsell-liquidity", Eval: UpsellLiquidity},
	Rule[Context]{Name: "cash-flow-risk", Eval: CashFlowRisk},
)

// UpsellLiquidity counts clients that have paid at least the upsell share of
// their commitment and are candidates for a further sale.
func UpsellLiquidity(ctx *Context) *Insight {
	threshold := ctx.Thresholds.upsellLiquidity()
	count := 0
	for _, c := range ctx.ClientSummaries {
		if c.TotalCommitted <= 0 {
			continue
		}
		if c.TotalPaid/c.TotalCommitted*100 >= threshold {
			count++
		}
	}
	if count == 0 {
		return nil
	}

	return &Insight{
		ID:       "upsell-liquidity",
		Title:    fmt.Sprintf("%d %s de venta adicional", count, plural(count, "Oportunidad", "Oportunidades")),
		Severity: SeverityPositive,
		Icon:     IconStar,
		Priority: PriorityUpsellLiquidity,
		Description: fmt.Sprintf("%d %s ya %s al menos el %s de su compromiso.",
			count, plural(count, "cliente", "clientes"), plural(count, "pagó", "pagaron"), percent(threshold)),
		ActionHint: "Ofréceles una nueva unidad o mejoras mientras su liquidez está disponible.",
		Actions: []Action{{
			ID:      "filter-upsell",
			Label:   "Ver clientes",
			Type:    ActionFilter,
			Payload: map[string]any{"minPaid": threshold},
		}},
	}
}

// CashFlowRisk counts clients whose unpaid balance is at least the risk
// share of their commitment. The share comes from Thresholds.CashFlowRisk
// and defaults to 80%.
func CashFlowRisk(ctx *Context) *Insight {
	threshold := ctx.Thresholds.cashFlowRisk()
	count := 0
	var outstanding float64
	for _, c := range ctx.ClientSummaries {
		if c.TotalCommitted <= 0 {
			continue
		}
		if c.BalanceDue/c.TotalCommitted*100 >= threshold {
			count++
			outstanding += c.BalanceDue
		}
	}
	if count == 0 {
		return nil
	}

	return &Insight{
		ID:       "cash-flow-risk",
		Title:    fmt.Sprintf("%d %s con riesgo de flujo de caja", count, plural(count, "cliente", "clientes")),
		Severity: SeverityWarning,
		Icon:     IconAlertTriangle,
		Priority: PriorityCashFlowRisk,
		Description: fmt.Sprintf("%d %s mantienen un saldo pendiente de al menos el %s de su compromiso.",
			count, plural(count, "cliente", "clientes"), percent(threshold)),
		Context:    fmt.Sprintf("Saldo pendiente acumulado: %s.", money(outstanding)),
		ActionHint: "Prioriza el seguimiento de cobranza con estos clientes.",
		Actions: []Action{{
			ID:      "filter-cash-flow-risk",
			Label:   "Ver clientes",
			Type:    ActionFilter,
			Payload: map[string]any{"minUnpaid": threshold},
		}},
	}
}
