// Package pipeline wires fetcher, assembler, store, analytics and
// presentation into the download and render use cases.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"yieldcurve-lab/internal/analytics"
	"yieldcurve-lab/internal/curve"
	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/observability"
	"yieldcurve-lab/internal/reporting"
	"yieldcurve-lab/internal/storage"
)

// ErrNoFetcher is returned by Download when the pipeline was built without a fetcher.
var ErrNoFetcher = errors.New("pipeline: no series fetcher configured")

// Pipeline orchestrates one curve.
type Pipeline struct {
	store     storage.CurveStore
	curveName string
	series    curve.SeriesMap
	metrics   []analytics.Metric
	fetcher   curve.SeriesFetcher
	logger    zerolog.Logger
	obs       *observability.Metrics
	chart     reporting.ChartConfig
	clock     func() time.Time
}

// New creates a pipeline for curveName over store, using the default UST
// series map and slope metrics until overridden.
func New(store storage.CurveStore, curveName string) *Pipeline {
	return &Pipeline{
		store:     store,
		curveName: curveName,
		series:    curve.DefaultUSTSeries,
		metrics:   analytics.DefaultMetrics,
		logger:    zerolog.Nop(),
		clock:     time.Now,
	}
}

// WithFetcher enables Download.
func (p *Pipeline) WithFetcher(f curve.SeriesFetcher) *Pipeline {
	p.fetcher = f
	return p
}

// WithSeries sets the tenor -> series mapping. Empty keeps the current one.
func (p *Pipeline) WithSeries(series curve.SeriesMap) *Pipeline {
	if len(series) > 0 {
		p.series = series
	}
	return p
}

// WithMetrics sets the spread metrics. Empty keeps the current ones.
func (p *Pipeline) WithMetrics(metrics []analytics.Metric) *Pipeline {
	if len(metrics) > 0 {
		p.metrics = metrics
	}
	return p
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(l zerolog.Logger) *Pipeline {
	p.logger = l
	return p
}

// WithObservability records run metrics.
func (p *Pipeline) WithObservability(m *observability.Metrics) *Pipeline {
	p.obs = m
	return p
}

// WithChartConfig sets SVG rendering parameters.
func (p *Pipeline) WithChartConfig(cfg reporting.ChartConfig) *Pipeline {
	p.chart = cfg
	return p
}

// WithClock sets a custom clock for run durations.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// DownloadResult summarizes a download run.
type DownloadResult struct {
	Rows     int
	Duration time.Duration
}

// Download fetches the series map over [start, end] and upserts the table.
// Nothing is written if any series fails.
func (p *Pipeline) Download(ctx context.Context, start, end time.Time) (DownloadResult, error) {
	if p.fetcher == nil {
		return DownloadResult{}, ErrNoFetcher
	}

	began := p.clock()
	res, err := p.download(ctx, start, end)
	res.Duration = p.clock().Sub(began)
	p.obs.RecordPipelineRun("download", status(err), res.Duration.Seconds())
	return res, err
}

func (p *Pipeline) download(ctx context.Context, start, end time.Time) (DownloadResult, error) {
	assembler := curve.NewAssembler(p.fetcher, curve.Options{Logger: p.logger, Metrics: p.obs})
	rows, err := assembler.Assemble(ctx, p.series, start, end)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("assemble curve: %w", err)
	}

	upsertStart := p.clock()
	if err := p.store.Upsert(ctx, rows, p.curveName); err != nil {
		return DownloadResult{}, fmt.Errorf("upsert curve %s: %w", p.curveName, err)
	}

	p.logger.Info().
		Str("curve", p.curveName).
		Int("rows", len(rows)).
		Dur("duration", p.clock().Sub(upsertStart)).
		Msg("curve upserted")

	return DownloadResult{Rows: len(rows)}, nil
}

// Outputs names the files a render writes. Empty paths are skipped.
type Outputs struct {
	SVGPath string
	CSVPath string

	// SummaryPath receives a Markdown table of per-metric statistics.
	// Only spread renders write it.
	SummaryPath string
}

// CurveResult summarizes a curve render.
type CurveResult struct {
	Snapshots []reporting.CurveSnapshot
	Missing   []time.Time // requested dates with no stored points
}

// RenderCurve loads the curve and overlays the requested dates.
func (p *Pipeline) RenderCurve(ctx context.Context, dates []time.Time, out Outputs) (CurveResult, error) {
	began := p.clock()
	res, err := p.renderCurve(ctx, dates, out)
	p.obs.RecordPipelineRun("render_curve", status(err), p.clock().Sub(began).Seconds())
	return res, err
}

func (p *Pipeline) renderCurve(ctx context.Context, dates []time.Time, out Outputs) (CurveResult, error) {
	if len(dates) == 0 {
		return CurveResult{}, fmt.Errorf("render curve: no dates requested")
	}

	rows, err := p.store.Load(ctx, p.curveName)
	if err != nil {
		return CurveResult{}, fmt.Errorf("load curve %s: %w", p.curveName, err)
	}

	res := CurveResult{Snapshots: reporting.SelectSnapshots(rows, dates)}
	for _, s := range res.Snapshots {
		if len(s.Rows) == 0 {
			res.Missing = append(res.Missing, s.Date)
			p.logger.Warn().
				Str("curve", p.curveName).
				Str("date", domain.FormatDate(s.Date)).
				Msg("no curve points stored for date")
		}
	}

	if err := p.write(out.SVGPath, "curve_svg", reporting.RenderCurveSVG(res.Snapshots, p.chart)); err != nil {
		return res, err
	}
	if err := p.write(out.CSVPath, "curve_csv", reporting.RenderCurveCSV(res.Snapshots)); err != nil {
		return res, err
	}

	return res, nil
}

// Spreads loads the curve and computes the configured metrics.
func (p *Pipeline) Spreads(ctx context.Context) ([]domain.SpreadRow, error) {
	rows, err := p.store.Load(ctx, p.curveName)
	if err != nil {
		return nil, fmt.Errorf("load curve %s: %w", p.curveName, err)
	}
	return analytics.ComputeSpreads(rows, p.metrics), nil
}

// Summarize reduces a spread series to per-metric statistics.
func (p *Pipeline) Summarize(spreads []domain.SpreadRow) []analytics.SpreadSummary {
	return analytics.Summarize(spreads, p.metrics)
}

// RenderSpreads computes the spread series and writes the requested outputs.
func (p *Pipeline) RenderSpreads(ctx context.Context, out Outputs) ([]domain.SpreadRow, error) {
	began := p.clock()
	spreads, err := p.renderSpreads(ctx, out)
	p.obs.RecordPipelineRun("render_spreads", status(err), p.clock().Sub(began).Seconds())
	return spreads, err
}

func (p *Pipeline) renderSpreads(ctx context.Context, out Outputs) ([]domain.SpreadRow, error) {
	spreads, err := p.Spreads(ctx)
	if err != nil {
		return nil, err
	}

	names := analytics.MetricNames(p.metrics)
	if err := p.write(out.SVGPath, "spreads_svg", reporting.RenderSpreadsSVG(spreads, names, p.chart)); err != nil {
		return spreads, err
	}
	if err := p.write(out.CSVPath, "spreads_csv", reporting.RenderSpreadsCSV(spreads, names)); err != nil {
		return spreads, err
	}
	if out.SummaryPath != "" {
		md := reporting.RenderSpreadSummaryMarkdown(p.curveName, p.Summarize(spreads))
		if err := p.write(out.SummaryPath, "spreads_summary", md); err != nil {
			return spreads, err
		}
	}

	p.logger.Info().
		Str("curve", p.curveName).
		Int("dates", len(spreads)).
		Msg("spreads computed")

	return spreads, nil
}

func (p *Pipeline) write(path, kind, content string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	p.obs.RecordChart(kind)
	p.logger.Info().Str("path", path).Str("kind", kind).Msg("output written")
	return nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
