package reporting

import (
	"fmt"
	"strings"

	"yieldcurve-lab/internal/analytics"
	"yieldcurve-lab/internal/domain"
)

// RenderSpreadSummaryMarkdown renders spread summaries as a Markdown table.
func RenderSpreadSummaryMarkdown(curveName string, summaries []analytics.SpreadSummary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s Curve Spreads\n\n", curveName))

	if len(summaries) == 0 {
		sb.WriteString("No spread metrics configured.\n")
		return sb.String()
	}

	sb.WriteString("| Metric | Dates | Last | As of | Mean | Stddev | Min | P10 | Median | P90 | Max | Inverted | Longest Inversion |\n")
	sb.WriteString("|--------|-------|------|-------|------|--------|-----|-----|--------|-----|-----|----------|-------------------|\n")
	for _, s := range summaries {
		if s.Count == 0 {
			sb.WriteString(fmt.Sprintf("| %s | 0 | - | - | - | - | - | - | - | - | - | - | - |\n", s.Metric))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %s | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %d | %d |\n",
			s.Metric, s.Count, s.Last, domain.FormatDate(s.LastDate),
			s.Mean, s.Stddev, s.Min, s.P10, s.Median, s.P90, s.Max,
			s.InvertedDays, s.LongestInversion))
	}
	sb.WriteString("\n")

	return sb.String()
}
