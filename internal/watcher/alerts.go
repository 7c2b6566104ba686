package watcher

import (
	"fmt"

	"github.com/blackwell-systems/insightwatch/internal/adapter"
	"github.com/blackwell-systems/insightwatch/internal/insight"
)

// Compare detects insights that appeared or went away between two
// snapshots. Domains are visited in dashboard order.
//
// A new critical insight is a critical alert and a new warning is a warning
// alert. New positive or info insights and resolved critical or warning
// insights are info alerts.
func Compare(prev, curr *Snapshot) []Alert {
	var alerts []Alert
	for _, d := range adapter.Domains {
		before := byID(prev.Insights[d])
		after := byID(curr.Insights[d])

		for _, in := range curr.Insights[d] {
			if _, seen := before[in.ID]; seen {
				continue
			}
			alerts = append(alerts, Alert{
				Level:   appearedLevel(in.Severity),
				Domain:  d,
				Title:   in.Title,
				Message: in.Description,
				Time:    curr.Timestamp,
			})
		}

		for _, in := range prev.Insights[d] {
			if _, still := after[in.ID]; still {
				continue
			}
			if in.Severity != insight.SeverityCritical && in.Severity != insight.SeverityWarning {
				continue
			}
			alerts = append(alerts, Alert{
				Level:   LevelInfo,
				Domain:  d,
				Title:   fmt.Sprintf("Resuelto: %s", in.Title),
				Message: "El hallazgo ya no aparece con los registros actuales.",
				Time:    curr.Timestamp,
			})
		}
	}
	return alerts
}

func appearedLevel(s insight.Severity) string {
	switch s {
	case insight.SeverityCritical:
		return LevelCritical
	case insight.SeverityWarning:
		return LevelWarning
	default:
		return LevelInfo
	}
}

func byID(list []insight.Insight) map[string]insight.Insight {
	m := make(map[string]insight.Insight, len(list))
	for _, in := range list {
		m[in.ID] = in
	}
	return m
}
