package domain

import "time"

// SpreadRow holds the slope metrics computable on one date.
// Metrics that could not be computed are absent from Values, never zero-filled.
type SpreadRow struct {
	Date   time.Time
	Values map[string]float64 // metric name -> value
}

// Value returns the metric value and whether it was computed for this date.
func (r SpreadRow) Value(metric string) (float64, bool) {
	v, ok := r.Values[metric]
	return v, ok
}
