package insight

import (
	"fmt"
	"sort"
)

// PlatformKPIs is the usage snapshot the admin analytics rules read.
type PlatformKPIs struct {
	HourlyActivity         []HourActivity `json:"hourlyActivity" yaml:"hourlyActivity"`
	UserGrowthRate         float64        `json:"userGrowthRate" yaml:"userGrowthRate"`
	PreviousUserGrowthRate float64        `json:"previousUserGrowthRate" yaml:"previousUserGrowthRate"`
	Countries              []CountryStat  `json:"countries" yaml:"countries"`
	ChurnRate              float64        `json:"churnRate" yaml:"churnRate"`
	Features               []FeatureUsage `json:"features" yaml:"features"`
	AvgSessionSeconds      float64        `json:"avgSessionSeconds" yaml:"avgSessionSeconds"`
	BounceRate             float64        `json:"bounceRate" yaml:"bounceRate"`
	TotalUsers             int            `json:"totalUsers" yaml:"totalUsers"`
	TotalOrgs              int            `json:"totalOrgs" yaml:"totalOrgs"`
	TopUsers               []UserSessions `json:"topUsers" yaml:"topUsers"`
	TotalSessions          int            `json:"totalSessions" yaml:"totalSessions"`
}

// HourActivity is the session count for one hour of the day (0-23).
type HourActivity struct {
	Hour     int `json:"hour" yaml:"hour"`
	Sessions int `json:"sessions" yaml:"sessions"`
}

// CountryStat is user volume and growth for one country.
type CountryStat struct {
	Country       string  `json:"country" yaml:"country"`
	Users         int     `json:"users" yaml:"users"`
	GrowthPercent float64 `json:"growthPercent" yaml:"growthPercent"`
}

// FeatureUsage is the share of active users that used a feature.
type FeatureUsage struct {
	Name         string  `json:"name" yaml:"name"`
	UsagePercent float64 `json:"usagePercent" yaml:"usagePercent"`
}

// UserSessions is the session count of one user.
type UserSessions struct {
	UserID   string `json:"userId" yaml:"userId"`
	Name     string `json:"name" yaml:"name"`
	Sessions int    `json:"sessions" yaml:"sessions"`
}

// Admin rule thresholds.
const (
	peakActivityFactor        = 1.5
	acceleratedGrowthPercent  = 20.0
	emergingMarketGrowth      = 50.0
	emergingMarketMinUsers    = 5
	churnWarningPercent       = 5.0
	churnCriticalPercent      = 10.0
	popularFeaturePercent     = 60.0
	shortSessionSeconds       = 60.0
	bounceWarningPercent      = 50.0
	bounceCriticalPercent     = 65.0
	lowUsersPerOrg            = 2.0
	underutilizedFeatureUsage = 10.0
	topUsersCount             = 3
	topUsersInfoPercent       = 50.0
	topUsersWarningPercent    = 70.0
)

// AdminRules are the platform analytics rules, evaluated unconditionally.
var AdminRules = RuleSet[PlatformKPIs]{
	Name: "admin",
	Rules: []Rule[PlatformKPIs]{
		{Name: "peak-activity-hours", Eval: PeakActivityHours},
		{Name: "accelerated-growth", Eval: AcceleratedGrowth},
		{Name: "emerging-market", Eval: EmergingMarket},
		{Name: "churn-alert", Eval: ChurnAlert},
		{Name: "popular-feature", Eval: PopularFeature},
		{Name: "short-sessions", Eval: ShortSessions},
		{Name: "high-bounce-rate", Eval: HighBounceRate},
		{Name: "low-users-per-org", Eval: LowUsersPerOrg},
		{Name: "underutilized-feature", Eval: UnderutilizedFeature},
		{Name: "top-users-concentration", Eval: TopUsersConcentration},
	},
}

// PeakActivityHours names the busiest hour when it clearly exceeds the
// hourly average.
func PeakActivityHours(k *PlatformKPIs) *Insight {
	if len(k.HourlyActivity) == 0 {
		return nil
	}
	var total int
	peak := k.HourlyActivity[0]
	for _, h := range k.HourlyActivity {
		total += h.Sessions
		if h.Sessions > peak.Sessions {
			peak = h
		}
	}
	if total == 0 {
		return nil
	}
	avg := float64(total) / float64(len(k.HourlyActivity))
	if float64(peak.Sessions) < avg*peakActivityFactor {
		return nil
	}
	return &Insight{
		ID:          "peak-activity-hours",
		Title:       fmt.Sprintf("Horario pico: %02d:00", peak.Hour),
		Description: fmt.Sprintf("La actividad alcanza su máximo a las %02d:00 con %d sesiones, %.1fx el promedio por hora.", peak.Hour, peak.Sessions, float64(peak.Sessions)/avg),
		Severity:    SeverityInfo,
		Icon:        IconClock,
		Priority:    60,
		ActionHint:  "Programa mantenimientos y despliegues fuera de este horario.",
	}
}

// AcceleratedGrowth flags user growth that is high and speeding up.
func AcceleratedGrowth(k *PlatformKPIs) *Insight {
	if k.UserGrowthRate < acceleratedGrowthPercent || k.UserGrowthRate <= k.PreviousUserGrowthRate {
		return nil
	}
	return &Insight{
		ID:          "accelerated-growth",
		Title:       "Crecimiento acelerado de usuarios",
		Description: fmt.Sprintf("Los usuarios crecieron un %s este período, frente al %s del anterior.", percent(k.UserGrowthRate), percent(k.PreviousUserGrowthRate)),
		Severity:    SeverityPositive,
		Icon:        IconTrendingUp,
		Priority:    45,
	}
}

// EmergingMarket names the fastest growing country with enough users.
func EmergingMarket(k *PlatformKPIs) *Insight {
	var best *CountryStat
	for i := range k.Countries {
		c := &k.Countries[i]
		if c.Users < emergingMarketMinUsers || c.GrowthPercent < emergingMarketGrowth {
			continue
		}
		if best == nil || c.GrowthPercent > best.GrowthPercent {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return &Insight{
		ID:          "emerging-market",
		Title:       fmt.Sprintf("Mercado emergente: %s", best.Country),
		Description: fmt.Sprintf("%s creció un %s y ya suma %d usuarios.", best.Country, percent(best.GrowthPercent), best.Users),
		Severity:    SeverityPositive,
		Icon:        IconGlobe,
		Priority:    55,
		Actions: []Action{{
			ID:      "filter-country",
			Label:   fmt.Sprintf("Ver %s", best.Country),
			Type:    ActionFilter,
			Payload: map[string]any{"country": best.Country},
		}},
	}
}

// ChurnAlert escalates with the churn rate.
func ChurnAlert(k *PlatformKPIs) *Insight {
	if k.ChurnRate < churnWarningPercent {
		return nil
	}
	severity, priority := SeverityWarning, 15
	if k.ChurnRate >= churnCriticalPercent {
		severity, priority = SeverityCritical, 5
	}
	return &Insight{
		ID:          "churn-alert",
		Title:       "Alerta de abandono",
		Description: fmt.Sprintf("La tasa de abandono es del %s en el período.", percent(k.ChurnRate)),
		Severity:    severity,
		Icon:        IconUserMinus,
		Priority:    priority,
		ActionHint:  "Contacta a las organizaciones inactivas antes de que cancelen.",
	}
}

// PopularFeature names the most used feature when it dominates usage.
func PopularFeature(k *PlatformKPIs) *Insight {
	features := sortedFeatures(k.Features)
	if len(features) == 0 || features[0].UsagePercent < popularFeaturePercent {
		return nil
	}
	top := features[0]
	return &Insight{
		ID:          "popular-feature",
		Title:       fmt.Sprintf("Funcionalidad más usada: %s", top.Name),
		Description: fmt.Sprintf("El %s de los usuarios activos usa %s.", percent(top.UsagePercent), top.Name),
		Severity:    SeverityPositive,
		Icon:        IconStar,
		Priority:    70,
	}
}

// ShortSessions flags an average session shorter than a minute.
func ShortSessions(k *PlatformKPIs) *Insight {
	if k.AvgSessionSeconds <= 0 || k.AvgSessionSeconds >= shortSessionSeconds {
		return nil
	}
	return &Insight{
		ID:          "short-sessions",
		Title:       "Sesiones muy cortas",
		Description: fmt.Sprintf("La sesión promedio dura %.0f segundos.", k.AvgSessionSeconds),
		Severity:    SeverityWarning,
		Icon:        IconClock,
		Priority:    30,
		ActionHint:  "Revisa el flujo de inicio: los usuarios podrían no encontrar lo que buscan.",
	}
}

// HighBounceRate escalates with the bounce rate.
func HighBounceRate(k *PlatformKPIs) *Insight {
	if k.BounceRate < bounceWarningPercent {
		return nil
	}
	severity, priority := SeverityWarning, 25
	if k.BounceRate >= bounceCriticalPercent {
		severity, priority = SeverityCritical, 10
	}
	return &Insight{
		ID:          "high-bounce-rate",
		Title:       "Tasa de rebote alta",
		Description: fmt.Sprintf("El %s de las visitas abandona sin interactuar.", percent(k.BounceRate)),
		Severity:    severity,
		Icon:        IconLogOut,
		Priority:    priority,
	}
}

// LowUsersPerOrg flags organizations that have not invited their team.
func LowUsersPerOrg(k *PlatformKPIs) *Insight {
	if k.TotalOrgs <= 0 || k.TotalUsers <= 0 {
		return nil
	}
	ratio := float64(k.TotalUsers) / float64(k.TotalOrgs)
	if ratio >= lowUsersPerOrg {
		return nil
	}
	return &Insight{
		ID:          "low-users-per-org",
		Title:       "Pocos usuarios por organización",
		Description: fmt.Sprintf("Cada organización tiene en promedio %.1f usuarios.", ratio),
		Severity:    SeverityInfo,
		Icon:        IconBuilding,
		Priority:    65,
		ActionHint:  "Impulsa las invitaciones de equipo durante el onboarding.",
	}
}

// UnderutilizedFeature names the least used feature when usage is marginal.
func UnderutilizedFeature(k *PlatformKPIs) *Insight {
	features := sortedFeatures(k.Features)
	if len(features) == 0 {
		return nil
	}
	low := features[len(features)-1]
	if low.UsagePercent >= underutilizedFeatureUsage {
		return nil
	}
	return &Insight{
		ID:          "underutilized-feature",
		Title:       fmt.Sprintf("Funcionalidad subutilizada: %s", low.Name),
		Description: fmt.Sprintf("Solo el %s de los usuarios activos usa %s.", percent(low.UsagePercent), low.Name),
		Severity:    SeverityInfo,
		Icon:        IconActivity,
		Priority:    75,
	}
}

// TopUsersConcentration reports how much activity the top three users hold.
func TopUsersConcentration(k *PlatformKPIs) *Insight {
	if k.TotalSessions <= 0 || len(k.TopUsers) == 0 {
		return nil
	}
	users := make([]UserSessions, len(k.TopUsers))
	copy(users, k.TopUsers)
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Sessions > users[j].Sessions
	})
	if len(users) > topUsersCount {
		users = users[:topUsersCount]
	}
	var top int
	for _, u := range users {
		top += u.Sessions
	}
	share := float64(top) / float64(k.TotalSessions) * 100
	if share < topUsersInfoPercent {
		return nil
	}
	severity := SeverityInfo
	if share >= topUsersWarningPercent {
		severity = SeverityWarning
	}
	return &Insight{
		ID:          "top-users-concentration",
		Title:       "Actividad concentrada en pocos usuarios",
		Description: fmt.Sprintf("Los %d usuarios más activos generan el %s de las sesiones.", len(users), percent(share)),
		Severity:    severity,
		Icon:        IconUsers,
		Priority:    50,
	}
}

func sortedFeatures(features []FeatureUsage) []FeatureUsage {
	sorted := make([]FeatureUsage, len(features))
	copy(sorted, features)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsagePercent > sorted[j].UsagePercent
	})
	return sorted
}
