package observability_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/observability"
	"yieldcurve-lab/internal/storage/memory"
)

func TestNewMetrics_PrivateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := observability.NewMetrics("")
	b := observability.NewMetrics("")

	a.RecordObservations("DGS2", 3, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ObservationsDropped.WithLabelValues("DGS2")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ObservationsDropped.WithLabelValues("DGS2")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *observability.Metrics

	assert.NotPanics(t, func() {
		m.RecordFetchRequest("200")
		m.RecordFetchRetry()
		m.RecordFetch("DGS2", time.Second)
		m.RecordObservations("DGS2", 1, 1)
		m.RecordDBQuery("sqlite", "load", 0.1, nil)
		m.RecordRows("upsert", "UST", 1)
		m.RecordPipelineRun("download", "success", 1)
		m.RecordChart("curve_svg")
	})
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}

func TestWriteTextfile(t *testing.T) {
	m := observability.NewMetrics("")
	m.RecordPipelineRun("download", "success", 0.5)

	path := filepath.Join(t.TempDir(), "yieldcurve.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `yieldcurve_pipeline_runs_total{phase="download",status="success"} 1`))
	assert.True(t, strings.Contains(string(data), "yieldcurve_health_last_successful_download_timestamp"))
}

type failingStore struct{}

func (failingStore) Upsert(context.Context, []domain.CurveRow, string) error {
	return errors.New("boom")
}

func (failingStore) Load(context.Context, string) ([]domain.CurveRow, error) {
	return nil, errors.New("boom")
}

func TestInstrumentStore(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics("")
	store := observability.InstrumentStore(memory.NewCurveStore(), "memory", m)

	d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := []domain.CurveRow{
		{Date: d, TenorYears: 2, Yield: 4.5},
		{Date: d, TenorYears: 10, Yield: 4.2},
	}
	require.NoError(t, store.Upsert(ctx, rows, "UST"))
	loaded, err := store.Load(ctx, "UST")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsUpserted.WithLabelValues("UST")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsLoaded.WithLabelValues("UST")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("memory", "upsert")))
}

func TestInstrumentStore_CountsErrors(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics("")
	store := observability.InstrumentStore(failingStore{}, "postgres", m)

	assert.Error(t, store.Upsert(ctx, nil, "UST"))
	_, err := store.Load(ctx, "UST")
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "upsert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "load")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RowsUpserted.WithLabelValues("UST")))
}

func TestInstrumentStore_NilMetricsPassThrough(t *testing.T) {
	inner := memory.NewCurveStore()
	assert.Same(t, inner, observability.InstrumentStore(inner, "memory", nil))
}
