// Package adapter turns domain records into insight contexts and runs the
// rule set that belongs to each business domain.
package adapter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/shopspring/decimal"
)

// Domain names one business area with its own adapter.
type Domain string

const (
	DomainClients      Domain = "clients"
	DomainMaterials    Domain = "materials"
	DomainGeneralCosts Domain = "general-costs"
	DomainFinance      Domain = "finance"
	DomainRealEstate   Domain = "real-estate"
	DomainAdmin        Domain = "admin"
)

// Domains lists every supported domain in dashboard order.
var Domains = []Domain{
	DomainClients,
	DomainMaterials,
	DomainGeneralCosts,
	DomainFinance,
	DomainRealEstate,
	DomainAdmin,
}

// ErrUnknownDomain is returned for a domain name no adapter handles.
var ErrUnknownDomain = errors.New("unknown domain")

// ParseDomain validates a domain name. Matching is case-insensitive.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Domains {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDomain, s)
}

// Kind separates incoming from outgoing money in finance records.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Entry is one dated amount: a payment, a purchase, a cost or a movement.
type Entry struct {
	ID           string          `json:"id,omitempty" yaml:"id,omitempty"`
	Date         time.Time       `json:"date" yaml:"date"`
	Amount       decimal.Decimal `json:"amount" yaml:"amount"`
	Category     string          `json:"category,omitempty" yaml:"category,omitempty"`
	ClientID     string          `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	Kind         Kind            `json:"kind,omitempty" yaml:"kind,omitempty"`
	CurrencyCode string          `json:"currencyCode,omitempty" yaml:"currencyCode,omitempty"`
}

// Client is the commitment and payment position of one buyer.
type Client struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name,omitempty" yaml:"name,omitempty"`
	TotalCommitted decimal.Decimal `json:"totalCommitted" yaml:"totalCommitted"`
	TotalPaid      decimal.Decimal `json:"totalPaid" yaml:"totalPaid"`
	CurrencyCode   string          `json:"currencyCode,omitempty" yaml:"currencyCode,omitempty"`
}

// BalanceDue is the unpaid part of the commitment, never negative.
func (c Client) BalanceDue() decimal.Decimal {
	due := c.TotalCommitted.Sub(c.TotalPaid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// Window is the analyzed period [Start, End). The previous period is the
// window of equal length that ends at Start.
type Window struct {
	Start time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End   time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// IsZero reports whether the window is unset, meaning every entry is
// current and there is no previous period.
func (w Window) IsZero() bool {
	return w.Start.IsZero()
}

// resolve fills an open End from now. A window that ends up empty is
// treated as unset.
func (w Window) resolve(now time.Time) Window {
	if w.Start.IsZero() {
		return Window{}
	}
	if w.End.IsZero() {
		w.End = now
	}
	if !w.End.After(w.Start) {
		return Window{}
	}
	return w
}

// Previous returns the window of equal length ending at Start.
func (w Window) Previous() Window {
	if w.IsZero() {
		return Window{}
	}
	return Window{Start: w.Start.Add(-w.End.Sub(w.Start)), End: w.Start}
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Dataset is the transport envelope for one domain evaluation. It is what
// the CLI reads from disk, the HTTP API receives and the store rebuilds.
type Dataset struct {
	Domain     Domain                `json:"domain" yaml:"domain"`
	Now        time.Time             `json:"now,omitempty" yaml:"now,omitempty"`
	Window     Window                `json:"window,omitempty" yaml:"window,omitempty"`
	Entries    []Entry               `json:"entries,omitempty" yaml:"entries,omitempty"`
	Clients    []Client              `json:"clients,omitempty" yaml:"clients,omitempty"`
	KPIs       *insight.PlatformKPIs `json:"kpis,omitempty" yaml:"kpis,omitempty"`
	Thresholds insight.Thresholds    `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Limit      int                   `json:"limit,omitempty" yaml:"limit,omitempty"`
}
