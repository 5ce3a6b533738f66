package analytics

import (
	"math"
	"sort"
	"time"

	"yieldcurve-lab/internal/domain"
)

// SpreadSummary describes one metric over the whole spread series.
type SpreadSummary struct {
	Metric string
	Count  int
	Mean   float64
	Stddev float64 // sample (n-1)
	Min    float64
	Max    float64
	P10    float64
	Median float64
	P90    float64

	Last     float64
	LastDate time.Time

	// A negative slope is an inverted curve segment.
	InvertedDays     int
	LongestInversion int // longest run of consecutive observed dates below zero
}

// Summarize computes a summary per metric, in metric order. Metrics with no
// observations are reported with Count 0 and zero statistics.
func Summarize(spreads []domain.SpreadRow, metrics []Metric) []SpreadSummary {
	out := make([]SpreadSummary, 0, len(metrics))

	for _, m := range metrics {
		s := SpreadSummary{Metric: m.Name}

		var values []float64
		streak := 0
		for _, r := range spreads {
			v, ok := r.Value(m.Name)
			if !ok {
				continue
			}
			values = append(values, v)
			s.Last, s.LastDate = v, r.Date

			if v < 0 {
				s.InvertedDays++
				streak++
				if streak > s.LongestInversion {
					s.LongestInversion = streak
				}
			} else {
				streak = 0
			}
		}

		s.Count = len(values)
		if s.Count > 0 {
			sorted := append([]float64(nil), values...)
			sort.Float64s(sorted)

			s.Mean = mean(values)
			s.Stddev = stddev(values, s.Mean)
			s.Min = sorted[0]
			s.Max = sorted[len(sorted)-1]
			s.P10 = percentile(sorted, 0.10)
			s.Median = percentile(sorted, 0.50)
			s.P90 = percentile(sorted, 0.90)
		}

		out = append(out, s)
	}

	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation; fewer than two values give 0.
func stddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// percentile uses linear interpolation. sorted must be ascending.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
