package insight

import (
	"strings"
	"testing"
)

// --- PeakActivityHours ---

func TestPeakActivityHours(t *testing.T) {
	k := &PlatformKPIs{HourlyActivity: []HourActivity{
		{Hour: 9, Sessions: 10},
		{Hour: 14, Sessions: 40},
		{Hour: 20, Sessions: 10},
	}}
	got := PeakActivityHours(k)
	if got == nil {
		t.Fatal("expected an insight")
	}
	if !strings.Contains(got.Title, "14:00") {
		t.Errorf("expected peak hour in title, got %q", got.Title)
	}
}

func TestPeakActivityHours_FlatDistribution(t *testing.T) {
	k := &PlatformKPIs{HourlyActivity: []HourActivity{{Hour: 1, Sessions: 10}, {Hour: 2, Sessions: 12}}}
	if got := PeakActivityHours(k); got != nil {
		t.Fatalf("expected nil for flat activity, got %+v", got)
	}
	if got := PeakActivityHours(&PlatformKPIs{}); got != nil {
		t.Fatalf("expected nil without data, got %+v", got)
	}
}

// --- AcceleratedGrowth ---

func TestAcceleratedGrowth(t *testing.T) {
	if got := AcceleratedGrowth(&PlatformKPIs{UserGrowthRate: 25, PreviousUserGrowthRate: 10}); got == nil {
		t.Error("expected an insight for 25% after 10%")
	}
	if got := AcceleratedGrowth(&PlatformKPIs{UserGrowthRate: 25, PreviousUserGrowthRate: 30}); got != nil {
		t.Error("expected nil when growth slows down")
	}
	if got := AcceleratedGrowth(&PlatformKPIs{UserGrowthRate: 15}); got != nil {
		t.Error("expected nil below 20%")
	}
}

// --- EmergingMarket ---

func TestEmergingMarket_PicksFastestEligible(t *testing.T) {
	k := &PlatformKPIs{Countries: []CountryStat{
		{Country: "MX", Users: 100, GrowthPercent: 10},
		{Country: "CL", Users: 8, GrowthPercent: 60},
		{Country: "PE", Users: 2, GrowthPercent: 300},
		{Country: "CO", Users: 20, GrowthPercent: 80},
	}}
	got := EmergingMarket(k)
	if got == nil {
		t.Fatal("expected an insight")
	}
	if !strings.Contains(got.Title, "CO") {
		t.Errorf("expected CO, got %q", got.Title)
	}
	if got.Actions[0].Payload["country"] != "CO" {
		t.Errorf("expected country payload, got %v", got.Actions[0].Payload)
	}
}

// --- ChurnAlert ---

func TestChurnAlert_Escalates(t *testing.T) {
	if got := ChurnAlert(&PlatformKPIs{ChurnRate: 3}); got != nil {
		t.Errorf("expected nil at 3%%, got %+v", got)
	}
	warn := ChurnAlert(&PlatformKPIs{ChurnRate: 7})
	if warn == nil || warn.Severity != SeverityWarning {
		t.Fatalf("expected warning at 7%%, got %+v", warn)
	}
	crit := ChurnAlert(&PlatformKPIs{ChurnRate: 12})
	if crit == nil || crit.Severity != SeverityCritical {
		t.Fatalf("expected critical at 12%%, got %+v", crit)
	}
	if crit.Priority >= warn.Priority {
		t.Errorf("expected critical to rank ahead, got %d vs %d", crit.Priority, warn.Priority)
	}
}

// --- Features ---

func TestPopularAndUnderutilizedFeature(t *testing.T) {
	k := &PlatformKPIs{Features: []FeatureUsage{
		{Name: "Reportes", UsagePercent: 30},
		{Name: "Presupuestos", UsagePercent: 75},
		{Name: "Exportar", UsagePercent: 4},
	}}
	popular := PopularFeature(k)
	if popular == nil || !strings.Contains(popular.Title, "Presupuestos") {
		t.Fatalf("expected Presupuestos as popular, got %+v", popular)
	}
	low := UnderutilizedFeature(k)
	if low == nil || !strings.Contains(low.Title, "Exportar") {
		t.Fatalf("expected Exportar as underutilized, got %+v", low)
	}
	if k.Features[0].Name != "Reportes" {
		t.Error("expected feature order to be unchanged")
	}
}

func TestFeatures_NoneQualify(t *testing.T) {
	k := &PlatformKPIs{Features: []FeatureUsage{{Name: "A", UsagePercent: 40}, {Name: "B", UsagePercent: 20}}}
	if got := PopularFeature(k); got != nil {
		t.Errorf("expected no popular feature, got %+v", got)
	}
	if got := UnderutilizedFeature(k); got != nil {
		t.Errorf("expected no underutilized feature, got %+v", got)
	}
}

// --- Sessions ---

func TestShortSessions(t *testing.T) {
	if got := ShortSessions(&PlatformKPIs{AvgSessionSeconds: 45}); got == nil {
		t.Error("expected an insight for 45s sessions")
	}
	if got := ShortSessions(&PlatformKPIs{AvgSessionSeconds: 120}); got != nil {
		t.Error("expected nil for 120s sessions")
	}
	if got := ShortSessions(&PlatformKPIs{}); got != nil {
		t.Error("expected nil without session data")
	}
}

func TestHighBounceRate_Escalates(t *testing.T) {
	if got := HighBounceRate(&PlatformKPIs{BounceRate: 40}); got != nil {
		t.Errorf("expected nil at 40%%, got %+v", got)
	}
	warn := HighBounceRate(&PlatformKPIs{BounceRate: 55})
	if warn == nil || warn.Severity != SeverityWarning || warn.Priority != 25 {
		t.Fatalf("expected warning priority 25 at 55%%, got %+v", warn)
	}
	crit := HighBounceRate(&PlatformKPIs{BounceRate: 70})
	if crit == nil || crit.Severity != SeverityCritical || crit.Priority != 10 {
		t.Fatalf("expected critical priority 10 at 70%%, got %+v", crit)
	}
}

// --- Organizations ---

func TestLowUsersPerOrg(t *testing.T) {
	if got := LowUsersPerOrg(&PlatformKPIs{TotalUsers: 15, TotalOrgs: 10}); got == nil {
		t.Error("expected an insight for 1.5 users per org")
	}
	if got := LowUsersPerOrg(&PlatformKPIs{TotalUsers: 40, TotalOrgs: 10}); got != nil {
		t.Error("expected nil for 4 users per org")
	}
	if got := LowUsersPerOrg(&PlatformKPIs{TotalUsers: 5}); got != nil {
		t.Error("expected nil without organizations")
	}
}

func TestTopUsersConcentration(t *testing.T) {
	users := []UserSessions{
		{UserID: "u1", Sessions: 10},
		{UserID: "u2", Sessions: 40},
		{UserID: "u3", Sessions: 20},
		{UserID: "u4", Sessions: 15},
	}
	info := TopUsersConcentration(&PlatformKPIs{TopUsers: users, TotalSessions: 140})
	if info == nil || info.Severity != SeverityInfo {
		t.Fatalf("expected info at 53%%, got %+v", info)
	}
	warn := TopUsersConcentration(&PlatformKPIs{TopUsers: users, TotalSessions: 100})
	if warn == nil || warn.Severity != SeverityWarning {
		t.Fatalf("expected warning at 75%%, got %+v", warn)
	}
	if got := TopUsersConcentration(&PlatformKPIs{TopUsers: users, TotalSessions: 1000}); got != nil {
		t.Errorf("expected nil at 7.5%%, got %+v", got)
	}
}

func TestAdminRules_RankedRun(t *testing.T) {
	k := &PlatformKPIs{ChurnRate: 12, BounceRate: 55, AvgSessionSeconds: 30}
	got := ids(NewEngine(AdminRules).Run(k, 0))
	want := []string{"churn-alert", "high-bounce-rate", "short-sessions"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
