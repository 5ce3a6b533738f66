package analytics

import (
	"yieldcurve-lab/internal/domain"
)

// Metric is a slope between two tenors: value = yield(To) - yield(From).
type Metric struct {
	Name string  `yaml:"name" validate:"required"`
	From float64 `yaml:"from" validate:"gt=0"`
	To   float64 `yaml:"to" validate:"gt=0"`
}

// DefaultMetrics are the 2s10s and 5s30s slopes.
var DefaultMetrics = []Metric{
	{Name: "slope_2s10s", From: 2, To: 10},
	{Name: "slope_5s30s", From: 5, To: 30},
}

// TenorLabel names a tenor column: 2 -> "y2", 0.5 -> "y0.5".
func TenorLabel(tenor float64) string {
	return "y" + domain.FormatTenor(tenor)
}

// MetricNames returns metric names in configured order.
func MetricNames(metrics []Metric) []string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = m.Name
	}
	return names
}

// ComputeSpreads pivots rows and evaluates each metric per date. A metric is
// present only where both of its tenors are; dates with no computable
// metric are omitted. Output is sorted by date.
func ComputeSpreads(rows []domain.CurveRow, metrics []Metric) []domain.SpreadRow {
	w := Pivot(rows)
	out := make([]domain.SpreadRow, 0, len(w.Dates))

	for _, d := range w.Dates {
		cells := w.Values[d]
		values := make(map[string]float64, len(metrics))
		for _, m := range metrics {
			from, ok := cells[m.From]
			if !ok {
				continue
			}
			to, ok := cells[m.To]
			if !ok {
				continue
			}
			values[m.Name] = to - from
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, domain.SpreadRow{Date: d, Values: values})
	}

	return out
}
