// Package reporting renders curve snapshots and spread series as SVG line
// charts and CSV exports. Renderers are read-only consumers of the long-form
// table and the spread series.
package reporting

import (
	"fmt"
	"math"
	"strings"
)

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 30)
	MarginBottom int    // bottom margin (default: 60)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string
	XLabel       string
	YLabel       string
}

// DefaultChartConfig returns the chart defaults.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  30,
		MarginBottom: 60,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

var seriesColors = []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}

type point struct {
	x, y float64
}

// lineSeries is a named polyline. A NaN y breaks the line.
type lineSeries struct {
	name    string
	points  []point
	markers bool
}

// xTick places a label at a data-space x.
type xTick struct {
	x     float64
	label string
}

// lineChart draws series on shared numeric axes.
func lineChart(series []lineSeries, ticks []xTick, cfg ChartConfig) string {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.points {
			if math.IsNaN(p.y) {
				continue
			}
			minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
			minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
		}
	}
	if math.IsInf(minX, 1) {
		return emptySVG(cfg, "No data")
	}

	xRange := maxX - minX
	if xRange == 0 {
		minX -= 0.5
		xRange = 1
	}
	yRange := maxY - minY
	if yRange < 0.001 {
		yRange = 1
	}
	minY -= yRange * 0.05
	yRange *= 1.1

	px, py, pw, ph := cfg.plotArea()
	toX := func(x float64) float64 { return float64(px) + (x-minX)/xRange*float64(pw) }
	toY := func(y float64) float64 { return float64(py+ph) - (y-minY)/yRange*float64(ph) }

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Y-axis grid
	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minY + yRange*float64(i)/float64(gridLines)
		y := toY(val)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, val))
	}

	// Axes
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"/>`,
		px, py+ph, px+pw, py+ph, cfg.TextColor))
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"/>`,
		px, py, px, py+ph, cfg.TextColor))

	for _, t := range ticks {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			toX(t.x), py+ph+16, cfg.FontSize-1, cfg.TextColor, escapeXML(t.label)))
	}

	if cfg.XLabel != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			px+pw/2, cfg.Height-12, cfg.FontSize, cfg.TextColor, escapeXML(cfg.XLabel)))
	}
	if cfg.YLabel != "" {
		cy := py + ph/2
		sb.WriteString(fmt.Sprintf(`<text x="16" y="%d" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-90 16 %d)">%s</text>`,
			cy, cfg.FontSize, cfg.TextColor, cy, escapeXML(cfg.YLabel)))
	}

	for si, s := range series {
		color := seriesColors[si%len(seriesColors)]

		var path []string
		pen := false
		for _, p := range s.points {
			if math.IsNaN(p.y) {
				pen = false
				continue
			}
			cmd := "L"
			if !pen {
				cmd = "M"
				pen = true
			}
			path = append(path, fmt.Sprintf("%s%.1f,%.1f", cmd, toX(p.x), toY(p.y)))
		}
		if len(path) > 0 {
			sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
				strings.Join(path, " "), color))
		}
		if s.markers {
			for _, p := range s.points {
				if math.IsNaN(p.y) {
					continue
				}
				sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`,
					toX(p.x), toY(p.y), color))
			}
		}

		// Legend
		ly := py + 10 + si*16
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			px+pw-120, ly, px+pw-100, ly, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+pw-95, ly+4, cfg.TextColor, escapeXML(s.name)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func withDefaults(cfg ChartConfig) ChartConfig {
	d := DefaultChartConfig()
	if cfg.Width == 0 {
		title, xl, yl := cfg.Title, cfg.XLabel, cfg.YLabel
		cfg = d
		cfg.Title, cfg.XLabel, cfg.YLabel = title, xl, yl
	}
	return cfg
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
