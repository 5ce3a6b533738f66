package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldcurve-lab/internal/curve"
	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/observability"
	"yieldcurve-lab/internal/storage/memory"
)

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

type stubFetcher struct {
	series map[string][]domain.RawObservation
	err    error
}

func (f *stubFetcher) FetchSeries(_ context.Context, seriesID string, _, _ time.Time) ([]domain.RawObservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.series[seriesID], nil
}

// scenarioFetcher serves S2 and S10 where S2 is missing on 2023-01-03.
func scenarioFetcher() *stubFetcher {
	return &stubFetcher{series: map[string][]domain.RawObservation{
		"S2": {
			{Date: day("2023-01-02"), Value: "4.5"},
			{Date: day("2023-01-03"), Value: "."},
		},
		"S10": {
			{Date: day("2023-01-02"), Value: "4.2"},
			{Date: day("2023-01-03"), Value: "4.3"},
		},
	}}
}

var scenarioSeries = curve.SeriesMap{
	{Tenor: 2, SeriesID: "S2"},
	{Tenor: 10, SeriesID: "S10"},
}

func TestPipeline_DownloadThenSpreads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCurveStore()
	m := observability.NewMetrics("")

	p := New(store, "UST").
		WithObservability(m).
		WithSeries(scenarioSeries).
		WithFetcher(scenarioFetcher())

	res, err := p.Download(ctx, day("2023-01-01"), day("2023-01-31"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 3, store.Len())

	spreads, err := p.Spreads(ctx)
	require.NoError(t, err)
	require.Len(t, spreads, 1, "2023-01-03 has no y2 and must be dropped")

	assert.True(t, spreads[0].Date.Equal(day("2023-01-02")))
	v, ok := spreads[0].Value("slope_2s10s")
	require.True(t, ok)
	assert.InDelta(t, -0.30, v, 1e-9)
	_, ok = spreads[0].Value("slope_5s30s")
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObservationsDropped.WithLabelValues("S2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("download", "success")))
}

func TestPipeline_DownloadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCurveStore()
	p := New(store, "UST").WithSeries(scenarioSeries).WithFetcher(scenarioFetcher())

	for i := 0; i < 3; i++ {
		_, err := p.Download(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Len())
}

func TestPipeline_DownloadFetchFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCurveStore()
	boom := errors.New("status 500")

	p := New(store, "UST").WithSeries(scenarioSeries).WithFetcher(&stubFetcher{err: boom})

	_, err := p.Download(ctx, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func TestPipeline_OptionOrderDoesNotMatter(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics("")
	var logs bytes.Buffer

	p := New(memory.NewCurveStore(), "UST").
		WithSeries(scenarioSeries).
		WithFetcher(scenarioFetcher()).
		WithObservability(m).
		WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel))

	_, err := p.Download(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObservationsDropped.WithLabelValues("S2")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ObservationsFetched.WithLabelValues("S10")))
	assert.Contains(t, logs.String(), "curve upserted")
}

func TestPipeline_DownloadWithoutFetcher(t *testing.T) {
	_, err := New(memory.NewCurveStore(), "UST").Download(context.Background(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNoFetcher)
}

func TestPipeline_RenderCurve(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p := New(memory.NewCurveStore(), "UST").WithSeries(scenarioSeries).WithFetcher(scenarioFetcher())
	_, err := p.Download(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)

	out := Outputs{
		SVGPath: filepath.Join(dir, "charts", "curve.svg"),
		CSVPath: filepath.Join(dir, "curve.csv"),
	}
	res, err := p.RenderCurve(ctx, []time.Time{day("2023-01-02"), day("2023-02-01")}, out)
	require.NoError(t, err)

	require.Len(t, res.Snapshots, 2)
	assert.Len(t, res.Snapshots[0].Rows, 2)
	require.Len(t, res.Missing, 1)
	assert.True(t, res.Missing[0].Equal(day("2023-02-01")))

	svg, err := os.ReadFile(out.SVGPath)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Yield Curve")

	csv, err := os.ReadFile(out.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, "date,tenor_years,yield\n2023-01-02,2,4.5\n2023-01-02,10,4.2\n", string(csv))
}

func TestPipeline_RenderCurveRequiresDates(t *testing.T) {
	_, err := New(memory.NewCurveStore(), "UST").RenderCurve(context.Background(), nil, Outputs{})
	assert.Error(t, err)
}

func TestPipeline_RenderSpreads(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := observability.NewMetrics("")

	p := New(memory.NewCurveStore(), "UST").
		WithObservability(m).
		WithSeries(scenarioSeries).
		WithFetcher(scenarioFetcher())
	_, err := p.Download(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)

	out := Outputs{
		SVGPath:     filepath.Join(dir, "spreads.svg"),
		CSVPath:     filepath.Join(dir, "spreads.csv"),
		SummaryPath: filepath.Join(dir, "summary.md"),
	}
	spreads, err := p.RenderSpreads(ctx, out)
	require.NoError(t, err)
	require.Len(t, spreads, 1)

	csv, err := os.ReadFile(out.CSVPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,slope_2s10s,slope_5s30s", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2023-01-02,-0.2999"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ","), "absent 5s30s is an empty cell")

	md, err := os.ReadFile(out.SummaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "| slope_2s10s | 1 |")

	summary := p.Summarize(spreads)
	require.Len(t, summary, 2)
	assert.Equal(t, 1, summary[0].InvertedDays)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChartsRendered.WithLabelValues("spreads_svg")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChartsRendered.WithLabelValues("spreads_summary")))
}

func TestPipeline_CurvesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCurveStore()

	ust := New(store, "UST").WithSeries(scenarioSeries).WithFetcher(scenarioFetcher())
	_, err := ust.Download(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)

	spreads, err := New(store, "GILT").Spreads(ctx)
	require.NoError(t, err)
	assert.Empty(t, spreads)
}
