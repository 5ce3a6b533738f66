package analytics

import (
	"math"
	"testing"

	"yieldcurve-lab/internal/domain"
)

func TestSummarize(t *testing.T) {
	spreads := []domain.SpreadRow{
		{Date: day("2023-01-02"), Values: map[string]float64{"slope_2s10s": -0.3}},
		{Date: day("2023-01-03"), Values: map[string]float64{"slope_2s10s": -0.1}},
		{Date: day("2023-01-04"), Values: map[string]float64{"slope_2s10s": 0.2}},
		{Date: day("2023-01-05"), Values: map[string]float64{"slope_2s10s": -0.2, "slope_5s30s": 0.4}},
	}

	got := Summarize(spreads, DefaultMetrics)
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}

	s := got[0]
	if s.Metric != "slope_2s10s" || s.Count != 4 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !approx(s.Mean, -0.1) {
		t.Errorf("mean = %v, want -0.1", s.Mean)
	}
	if !approx(s.Min, -0.3) || !approx(s.Max, 0.2) {
		t.Errorf("min/max = %v/%v", s.Min, s.Max)
	}
	if !approx(s.Median, -0.15) {
		t.Errorf("median = %v, want -0.15", s.Median)
	}
	if s.InvertedDays != 3 || s.LongestInversion != 2 {
		t.Errorf("inversion = %d days, longest %d; want 3, 2", s.InvertedDays, s.LongestInversion)
	}
	if !s.LastDate.Equal(day("2023-01-05")) || !approx(s.Last, -0.2) {
		t.Errorf("last = %v on %v", s.Last, s.LastDate)
	}
	wantStd := math.Sqrt((0.04 + 0 + 0.09 + 0.01) / 3)
	if !approx(s.Stddev, wantStd) {
		t.Errorf("stddev = %v, want %v", s.Stddev, wantStd)
	}

	if got[1].Count != 1 || got[1].Stddev != 0 || !approx(got[1].P90, 0.4) {
		t.Errorf("single-observation summary = %+v", got[1])
	}
}

func TestSummarize_NoObservations(t *testing.T) {
	got := Summarize(nil, []Metric{{Name: "slope_2s10s", From: 2, To: 10}})
	if len(got) != 1 || got[0].Count != 0 || got[0].Mean != 0 {
		t.Errorf("expected empty summary, got %+v", got)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	cases := map[float64]float64{0: 1, 0.5: 3, 0.9: 4.6, 1: 5}
	for p, want := range cases {
		if got := percentile(sorted, p); !approx(got, want) {
			t.Errorf("percentile(%v) = %v, want %v", p, got, want)
		}
	}
}
