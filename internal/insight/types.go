// Package insight provides the insight rule engine, its data model and the
// built-in rule sets.
package insight

import "strings"

// Severity is how the presentation layer should tint an insight card.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityPositive Severity = "positive"
)

// ActionType tells the presentation layer how to interpret an action payload.
type ActionType string

const (
	ActionNavigate ActionType = "navigate"
	ActionFilter   ActionType = "filter"
	ActionOpen     ActionType = "open"
)

// Icon is an opaque symbol name. The presentation layer maps it to a visual.
type Icon string

const (
	IconTrendingUp    Icon = "TrendingUp"
	IconTrendingDown  Icon = "TrendingDown"
	IconPieChart      Icon = "PieChart"
	IconAlertTriangle Icon = "AlertTriangle"
	IconCalendar      Icon = "Calendar"
	IconDollarSign    Icon = "DollarSign"
	IconUsers         Icon = "Users"
	IconClock         Icon = "Clock"
	IconGlobe         Icon = "Globe"
	IconActivity      Icon = "Activity"
	IconStar          Icon = "Star"
	IconUserMinus     Icon = "UserMinus"
	IconLogOut        Icon = "LogOut"
	IconBuilding      Icon = "Building"
)

// DefaultPriority is the rank given to insights that do not set one.
const DefaultPriority = 99

// Insight is a single ranked observation about a context.
//
// ID identifies the kind of insight, not the instance: every evaluation of
// the same rule produces the same ID so the UI can key dismissals on it.
type Insight struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Icon        Icon     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Priority    int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	Context     string   `json:"context,omitempty" yaml:"context,omitempty"`
	ActionHint  string   `json:"actionHint,omitempty" yaml:"actionHint,omitempty"`
	Actions     []Action `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Action is a suggested follow-up the UI can offer next to an insight.
type Action struct {
	ID      string         `json:"id" yaml:"id"`
	Label   string         `json:"label" yaml:"label"`
	Type    ActionType     `json:"type" yaml:"type"`
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// EffectivePriority returns Priority, or DefaultPriority when unset.
func (i Insight) EffectivePriority() int {
	if i.Priority <= 0 {
		return DefaultPriority
	}
	return i.Priority
}

// MonthlyPoint is one month of a series. Period is a sortable "YYYY-MM" key.
type MonthlyPoint struct {
	Period  string  `json:"period" yaml:"period"`
	Value   float64 `json:"value" yaml:"value"`
	Balance float64 `json:"balance,omitempty" yaml:"balance,omitempty"`
}

// CategoryValue is the total for one category label.
type CategoryValue struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// ClientSummary is the commitment and payment position of one client.
type ClientSummary struct {
	ID             string  `json:"id" yaml:"id"`
	TotalCommitted float64 `json:"totalCommitted" yaml:"totalCommitted"`
	TotalPaid      float64 `json:"totalPaid" yaml:"totalPaid"`
	BalanceDue     float64 `json:"balanceDue" yaml:"balanceDue"`
	CurrencyCode   string  `json:"currencyCode,omitempty" yaml:"currencyCode,omitempty"`
}

// Polarity declares whether an increase of the analyzed metric is good news.
type Polarity string

const (
	// PolarityUnset falls back to inferring polarity from Terms.Singular.
	PolarityUnset  Polarity = ""
	IncreaseIsBad  Polarity = "increase_is_bad"
	IncreaseIsGood Polarity = "increase_is_good"
)

// TermLabels are the domain words substituted into narrative templates.
type TermLabels struct {
	Singular     string `json:"singular" yaml:"singular"`
	Plural       string `json:"plural" yaml:"plural"`
	VerbIncrease string `json:"verbIncrease" yaml:"verbIncrease"`
	VerbDecrease string `json:"verbDecrease" yaml:"verbDecrease"`
}

// Context is the normalized, domain-agnostic input to every generic rule.
// Rules read it and never modify it.
type Context struct {
	// TotalValue is the aggregate for the analyzed period. Zero means the
	// caller did not supply one and the category sum is used instead.
	TotalValue float64 `json:"totalValue,omitempty" yaml:"totalValue,omitempty"`

	// MonthlyData must be in ascending period order.
	MonthlyData []MonthlyPoint `json:"monthlyData" yaml:"monthlyData"`

	CategoryData         []CategoryValue `json:"categoryData" yaml:"categoryData"`
	PreviousCategoryData []CategoryValue `json:"previousCategoryData,omitempty" yaml:"previousCategoryData,omitempty"`
	ClientSummaries      []ClientSummary `json:"clientSummaries,omitempty" yaml:"clientSummaries,omitempty"`

	PaymentCount int `json:"paymentCount" yaml:"paymentCount"`
	MonthCount   int `json:"monthCount" yaml:"monthCount"`

	// CurrentMonth is the 1-based calendar month of the reference date.
	CurrentMonth int `json:"currentMonth" yaml:"currentMonth"`
	// CurrentYear restricts the year-end projection to periods of that
	// year. Zero keeps the last CurrentMonth points whatever their year.
	CurrentYear   int  `json:"currentYear,omitempty" yaml:"currentYear,omitempty"`
	IsShortPeriod bool `json:"isShortPeriod" yaml:"isShortPeriod"`

	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
	Terms      TermLabels `json:"termLabels" yaml:"termLabels"`
	Polarity   Polarity   `json:"polarity,omitempty" yaml:"polarity,omitempty"`
}

// total returns TotalValue, falling back to the sum of CategoryData.
func (c *Context) total() float64 {
	if c.TotalValue != 0 {
		return c.TotalValue
	}
	return sumValues(c.CategoryData)
}

// increaseIsGood resolves Polarity. When unset, a singular label containing
// "ingres" (ingreso, ingresos) is treated as income-like.
func (c *Context) increaseIsGood() bool {
	switch c.Polarity {
	case IncreaseIsGood:
		return true
	case IncreaseIsBad:
		return false
	}
	return strings.Contains(strings.ToLower(c.Terms.Singular), "ingres")
}

func (c *Context) singular() string {
	if c.Terms.Singular == "" {
		return "valor"
	}
	return c.Terms.Singular
}

func (c *Context) plural() string {
	if c.Terms.Plural == "" {
		return "valores"
	}
	return c.Terms.Plural
}

func (c *Context) verb(increase bool) string {
	if increase {
		if c.Terms.VerbIncrease == "" {
			return "aumentó"
		}
		return c.Terms.VerbIncrease
	}
	if c.Terms.VerbDecrease == "" {
		return "disminuyó"
	}
	return c.Terms.VerbDecrease
}

func sumValues(values []CategoryValue) float64 {
	var sum float64
	for _, v := range values {
		sum += v.Value
	}
	return sum
}
