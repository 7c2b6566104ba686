package adapter

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DefaultClientsLimit caps the clients panel when the caller sets no limit.
const DefaultClientsLimit = 5

// staleAfter is how long a client with a balance may go without paying.
const staleAfter = 60 * 24 * time.Hour

const (
	priorityDebtors         = 15
	priorityNoRecentPayment = 25
)

// ClientsInput is the data behind the clients and real-estate panels.
type ClientsInput struct {
	Payments   []Entry
	Clients    []Client
	Window     Window
	Now        time.Time
	Thresholds insight.Thresholds
	// Limit caps the result. Zero applies the domain default.
	Limit int
}

// clientBook is the context of the client-local rules.
type clientBook struct {
	clients     []Client
	lastPayment map[string]time.Time
	now         time.Time
}

var clientRules = insight.RuleSet[clientBook]{
	Name: "clients",
	Rules: []insight.Rule[clientBook]{
		{Name: "debtors", Eval: debtors},
		{Name: "no-recent-payment", Eval: noRecentPayment},
	},
}

// GenerateClientsInsights runs the generic rules over incoming payments
// together with the debtor rules, capped at DefaultClientsLimit unless
// in.Limit says otherwise.
func GenerateClientsInsights(in ClientsInput, opts ...insight.EngineOption) []insight.Insight {
	ctx := BuildContext(in.Payments, in.Window, in.Now, profileIncome, in.Thresholds)
	ctx.ClientSummaries = summaries(in.Clients)

	generic := insight.NewEngine(insight.GenericRules, opts...).Run(ctx, 0)
	local := insight.NewEngine(clientRules, opts...).Run(newClientBook(in), 0)

	limit := in.Limit
	if limit == 0 {
		limit = DefaultLimit(DomainClients)
	}
	return insight.Truncate(insight.RankInsights(append(generic, local...)), limit)
}

// DefaultLimit is the cap a domain applies when the caller sets none. Zero
// means uncapped.
func DefaultLimit(d Domain) int {
	if d == DomainClients {
		return DefaultClientsLimit
	}
	return 0
}

func newClientBook(in ClientsInput) *clientBook {
	last := make(map[string]time.Time)
	for _, p := range in.Payments {
		if p.ClientID == "" || p.Date.IsZero() {
			continue
		}
		if p.Date.After(last[p.ClientID]) {
			last[p.ClientID] = p.Date
		}
	}
	return &clientBook{clients: in.Clients, lastPayment: last, now: in.Now}
}

func debtors(b *clientBook) *insight.Insight {
	count := 0
	outstanding := decimal.Zero
	for _, c := range b.clients {
		due := c.BalanceDue()
		if due.IsPositive() {
			count++
			outstanding = outstanding.Add(due)
		}
	}
	if count == 0 {
		return nil
	}

	noun := "clientes tienen"
	if count == 1 {
		noun = "cliente tiene"
	}
	return &insight.Insight{
		ID:          "debtors",
		Title:       fmt.Sprintf("%d %s saldo pendiente", count, noun),
		Description: fmt.Sprintf("El saldo total por cobrar es de %s.", amount(outstanding)),
		Severity:    insight.SeverityWarning,
		Icon:        insight.IconDollarSign,
		Priority:    priorityDebtors,
		ActionHint:  "Revisa los saldos y agenda recordatorios de pago.",
		Actions: []insight.Action{{
			ID:      "filter-debtors",
			Label:   "Ver deudores",
			Type:    insight.ActionFilter,
			Payload: map[string]any{"status": "debtor"},
		}},
	}
}

func noRecentPayment(b *clientBook) *insight.Insight {
	if b.now.IsZero() {
		return nil
	}
	cutoff := b.now.Add(-staleAfter)
	count := 0
	for _, c := range b.clients {
		if !c.BalanceDue().IsPositive() {
			continue
		}
		last, ok := b.lastPayment[c.ID]
		if !ok || last.Before(cutoff) {
			count++
		}
	}
	if count == 0 {
		return nil
	}

	noun := "clientes con saldo no pagan"
	if count == 1 {
		noun = "cliente con saldo no paga"
	}
	return &insight.Insight{
		ID:          "no-recent-payment",
		Title:       fmt.Sprintf("%d %s hace más de 60 días", count, noun),
		Description: "Sin pagos recientes el saldo pendiente tiende a convertirse en deuda difícil de cobrar.",
		Severity:    insight.SeverityWarning,
		Icon:        insight.IconClock,
		Priority:    priorityNoRecentPayment,
		ActionHint:  "Contacta primero a quienes tienen el saldo más alto.",
		Actions: []insight.Action{{
			ID:      "navigate-clients",
			Label:   "Ir a clientes",
			Type:    insight.ActionNavigate,
			Payload: map[string]any{"path": "/clients"},
		}},
	}
}

func amount(d decimal.Decimal) string {
	return "$" + humanize.Comma(d.Round(0).IntPart())
}
