package reporting

import (
	"strconv"
	"strings"

	"yieldcurve-lab/internal/domain"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderCurveCSV renders snapshots in long form: date,tenor_years,yield.
func RenderCurveCSV(snapshots []CurveSnapshot) string {
	var sb strings.Builder

	sb.WriteString("date,tenor_years,yield\n")
	for _, s := range snapshots {
		for _, r := range s.Rows {
			sb.WriteString(domain.FormatDate(r.Date))
			sb.WriteByte(',')
			sb.WriteString(formatFloat(r.TenorYears))
			sb.WriteByte(',')
			sb.WriteString(formatFloat(r.Yield))
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// RenderSpreadsCSV renders a spread series with one column per metric.
// Absent metrics are empty cells.
func RenderSpreadsCSV(spreads []domain.SpreadRow, metricNames []string) string {
	var sb strings.Builder

	// Header
	sb.WriteString("date")
	for _, name := range metricNames {
		sb.WriteByte(',')
		sb.WriteString(name)
	}
	sb.WriteByte('\n')

	// Rows
	for _, r := range spreads {
		sb.WriteString(domain.FormatDate(r.Date))
		for _, name := range metricNames {
			sb.WriteByte(',')
			if v, ok := r.Value(name); ok {
				sb.WriteString(formatFloat(v))
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
