package reporting

import (
	"sort"
	"time"

	"yieldcurve-lab/internal/domain"
)

// CurveSnapshot is the curve on one date, tenors ascending.
type CurveSnapshot struct {
	Date  time.Time
	Label string
	Rows  []domain.CurveRow
}

// SelectSnapshots extracts the requested dates from a long-form table, in
// request order. A date with no rows yields an empty snapshot.
func SelectSnapshots(rows []domain.CurveRow, dates []time.Time) []CurveSnapshot {
	byDate := make(map[time.Time][]domain.CurveRow)
	for _, r := range rows {
		d := domain.NormalizeDate(r.Date)
		byDate[d] = append(byDate[d], r)
	}

	out := make([]CurveSnapshot, 0, len(dates))
	for _, d := range dates {
		d = domain.NormalizeDate(d)
		snap := append([]domain.CurveRow(nil), byDate[d]...)
		domain.SortRows(snap)
		out = append(out, CurveSnapshot{Date: d, Label: domain.FormatDate(d), Rows: snap})
	}
	return out
}

// RenderCurveSVG overlays one curve per snapshot: tenor on x, yield on y.
func RenderCurveSVG(snapshots []CurveSnapshot, cfg ChartConfig) string {
	cfg = withDefaults(cfg)
	if cfg.Title == "" {
		cfg.Title = "Yield Curve"
	}
	if cfg.XLabel == "" {
		cfg.XLabel = "Tenor (years)"
	}
	if cfg.YLabel == "" {
		cfg.YLabel = "Yield"
	}

	tenorSet := make(map[float64]struct{})
	series := make([]lineSeries, 0, len(snapshots))
	for _, s := range snapshots {
		ls := lineSeries{name: s.Label, markers: true}
		for _, r := range s.Rows {
			ls.points = append(ls.points, point{x: r.TenorYears, y: r.Yield})
			tenorSet[r.TenorYears] = struct{}{}
		}
		series = append(series, ls)
	}

	ticks := make([]xTick, 0, len(tenorSet))
	for _, t := range sortedTenors(tenorSet) {
		ticks = append(ticks, xTick{x: t, label: domain.FormatTenor(t)})
	}

	return lineChart(series, ticks, cfg)
}

func sortedTenors(set map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Float64s(out)
	return out
}
