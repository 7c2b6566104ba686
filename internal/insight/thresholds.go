package insight

// Default rule sensitivities. Rules apply these when the matching Thresholds
// field is zero.
const (
	DefaultGrowthSignificant   = 15.0
	DefaultTrendStable         = 4.0
	DefaultConcentrationPareto = 80.0
	DefaultMinDataPoints       = 3
	DefaultUpsellLiquidity     = 90.0
	DefaultCashFlowRisk        = 80.0
)

// Thresholds overrides rule sensitivity. Percent values are on a 0-100
// scale. A zero field is unset.
type Thresholds struct {
	GrowthSignificant   float64 `json:"growthSignificant,omitempty" yaml:"growthSignificant,omitempty" mapstructure:"growth_significant"`
	TrendStable         float64 `json:"trendStable,omitempty" yaml:"trendStable,omitempty" mapstructure:"trend_stable"`
	ConcentrationPareto float64 `json:"concentrationPareto,omitempty" yaml:"concentrationPareto,omitempty" mapstructure:"concentration_pareto"`
	MinDataPoints       int     `json:"minDataPoints,omitempty" yaml:"minDataPoints,omitempty" mapstructure:"min_data_points"`
	UpsellLiquidity     float64 `json:"upsellLiquidity,omitempty" yaml:"upsellLiquidity,omitempty" mapstructure:"upsell_liquidity"`
	CashFlowRisk        float64 `json:"cashFlowRisk,omitempty" yaml:"cashFlowRisk,omitempty" mapstructure:"cash_flow_risk"`
}

func (t Thresholds) growthSignificant() float64 {
	return orDefault(t.GrowthSignificant, DefaultGrowthSignificant)
}

func (t Thresholds) trendStable() float64 {
	return orDefault(t.TrendStable, DefaultTrendStable)
}

func (t Thresholds) concentrationPareto() float64 {
	return orDefault(t.ConcentrationPareto, DefaultConcentrationPareto)
}

func (t Thresholds) minDataPoints() int {
	if t.MinDataPoints <= 0 {
		return DefaultMinDataPoints
	}
	return t.MinDataPoints
}

func (t Thresholds) upsellLiquidity() float64 {
	return orDefault(t.UpsellLiquidity, DefaultUpsellLiquidity)
}

func (t Thresholds) cashFlowRisk() float64 {
	return orDefault(t.CashFlowRisk, DefaultCashFlowRisk)
}

// Merge returns t with every unset field taken from fallback.
func (t Thresholds) Merge(fallback Thresholds) Thresholds {
	if t.GrowthSignificant == 0 {
		t.GrowthSignificant = fallback.GrowthSignificant
	}
	if t.TrendStable == 0 {
		t.TrendStable = fallback.TrendStable
	}
	if t.ConcentrationPareto == 0 {
		t.ConcentrationPareto = fallback.ConcentrationPareto
	}
	if t.MinDataPoints == 0 {
		t.MinDataPoints = fallback.MinDataPoints
	}
	if t.UpsellLiquidity == 0 {
		t.UpsellLiquidity = fallback.UpsellLiquidity
	}
	if t.CashFlowRisk == 0 {
		t.CashFlowRisk = fallback.CashFlowRisk
	}
	return t
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
