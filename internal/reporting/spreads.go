package reporting

import (
	"math"

	"yieldcurve-lab/internal/domain"
)

const secondsPerDay = 86400

// RenderSpreadsSVG draws one line per metric over time. Dates where a metric
// is absent break its line.
func RenderSpreadsSVG(spreads []domain.SpreadRow, metricNames []string, cfg ChartConfig) string {
	cfg = withDefaults(cfg)
	if cfg.Title == "" {
		cfg.Title = "Curve Spreads Over Time"
	}
	if cfg.XLabel == "" {
		cfg.XLabel = "Date"
	}
	if cfg.YLabel == "" {
		cfg.YLabel = "Spread (bp or %)"
	}

	series := make([]lineSeries, 0, len(metricNames))
	for _, name := range metricNames {
		ls := lineSeries{name: name}
		for _, r := range spreads {
			y := math.NaN()
			if v, ok := r.Value(name); ok {
				y = v
			}
			ls.points = append(ls.points, point{x: dayNumber(r), y: y})
		}
		series = append(series, ls)
	}

	return lineChart(series, dateTicks(spreads, 6), cfg)
}

func dayNumber(r domain.SpreadRow) float64 {
	return float64(r.Date.Unix() / secondsPerDay)
}

// dateTicks picks at most n evenly spaced date labels, always including the first row.
func dateTicks(spreads []domain.SpreadRow, n int) []xTick {
	if len(spreads) == 0 {
		return nil
	}
	interval := len(spreads) / n
	if interval < 1 {
		interval = 1
	}
	var ticks []xTick
	for i := 0; i < len(spreads); i += interval {
		ticks = append(ticks, xTick{x: dayNumber(spreads[i]), label: domain.FormatDate(spreads[i].Date)})
	}
	return ticks
}
