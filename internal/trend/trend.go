// Package trend detects the direction of a monthly series and projects a
// partial year to a full-year total.
package trend

import "math"

// Direction is the overall movement of a series.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// Confidence grades how consistently the series moved in its direction.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// MonthsPerYear is the length of the projection horizon.
const MonthsPerYear = 12

// Result is the outcome of Detect.
type Result struct {
	Direction            Direction  `json:"direction"`
	MonthlyChangePercent float64    `json:"monthly_change_percent"`
	Confidence           Confidence `json:"confidence"`
	DataPoints           int        `json:"data_points"`
}

// Projection is the outcome of ProjectYearEnd.
type Projection struct {
	Direction       Direction  `json:"direction"`
	ChangePercent   float64    `json:"change_percent"`
	ProjectedTotal  float64    `json:"projected_total"`
	Baseline        float64    `json:"baseline"`
	MonthsRemaining int        `json:"months_remaining"`
	Confidence      Confidence `json:"confidence"`
}

// Detect classifies the movement of values, which must be in chronological
// order. It returns nil when there are fewer than minPoints values or when no
// month-over-month change can be computed (every base is zero).
//
// The monthly change is the mean of the percentage changes between
// consecutive values. A mean within stablePercent of zero is Stable.
func Detect(values []float64, minPoints int, stablePercent float64) *Result {
	if minPoints < 2 {
		minPoints = 2
	}
	if len(values) < minPoints {
		return nil
	}

	changes := percentChanges(values)
	if len(changes) == 0 {
		return nil
	}

	var sum float64
	for _, c := range changes {
		sum += c
	}
	mean := sum / float64(len(changes))

	direction := Stable
	switch {
	case math.Abs(mean) < stablePercent:
		direction = Stable
	case mean > 0:
		direction = Increasing
	default:
		direction = Decreasing
	}

	return &Result{
		Direction:            direction,
		MonthlyChangePercent: mean,
		Confidence:           grade(changes, direction, stablePercent),
		DataPoints:           len(values),
	}
}

// ProjectYearEnd extrapolates a year-to-date series to a full-year total.
// monthsElapsed is the 1-based calendar month of the last value. The mean
// monthly rate from Detect is compounded from the last value across the
// remaining months and the result is compared with the pro-rated baseline
// (average month times twelve).
//
// It returns nil when Detect does, when monthsElapsed is outside 1..12 or when
// the baseline is zero.
func ProjectYearEnd(values []float64, monthsElapsed, minPoints int, stablePercent float64) *Projection {
	if monthsElapsed < 1 || monthsElapsed > MonthsPerYear {
		return nil
	}
	res := Detect(values, minPoints, stablePercent)
	if res == nil {
		return nil
	}

	var ytd float64
	for _, v := range values {
		ytd += v
	}
	baseline := ytd / float64(len(values)) * MonthsPerYear
	if baseline == 0 {
		return nil
	}

	remaining := MonthsPerYear - monthsElapsed
	rate := res.MonthlyChangePercent / 100
	projected := ytd
	next := values[len(values)-1]
	for i := 0; i < remaining; i++ {
		next *= 1 + rate
		if next < 0 {
			next = 0
		}
		projected += next
	}

	change := (projected - baseline) * 100 / math.Abs(baseline)
	direction := Stable
	switch {
	case res.Direction == Stable || math.Abs(change) < stablePercent:
		direction = Stable
	case change > 0:
		direction = Increasing
	default:
		direction = Decreasing
	}

	return &Projection{
		Direction:       direction,
		ChangePercent:   change,
		ProjectedTotal:  projected,
		Baseline:        baseline,
		MonthsRemaining: remaining,
		Confidence:      res.Confidence,
	}
}

// percentChanges returns the month-over-month percentage changes, skipping
// pairs whose base is zero.
func percentChanges(values []float64) []float64 {
	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(values[i]) {
			continue
		}
		changes = append(changes, (values[i]-prev)*100/math.Abs(prev))
	}
	return changes
}

func grade(changes []float64, direction Direction, stablePercent float64) Confidence {
	agree := 0
	for _, c := range changes {
		switch direction {
		case Increasing:
			if c > 0 {
				agree++
			}
		case Decreasing:
			if c < 0 {
				agree++
			}
		default:
			if math.Abs(c) < stablePercent {
				agree++
			}
		}
	}
	ratio := float64(agree) / float64(len(changes))
	switch {
	case ratio == 1:
		return ConfidenceHigh
	case ratio >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
