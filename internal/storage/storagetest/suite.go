// Package storagetest holds the behaviour every storage.CurveStore backend must share.
package storagetest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/storage"
)

// Factory returns an empty store. Backends that share one database across
// subtests should hand out distinct curve names instead; the suite only ever
// writes under names returned by Curve.
type Factory func(t *testing.T) storage.CurveStore

func day(d int) time.Time {
	return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
}

// RunCurveStoreSuite runs the shared CurveStore contract against a backend.
func RunCurveStoreSuite(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("UpsertAndLoad", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		rows := []domain.CurveRow{
			{Date: day(3), TenorYears: 10, Yield: 4.25},
			{Date: day(2), TenorYears: 10, Yield: 4.20},
			{Date: day(2), TenorYears: 2, Yield: 4.50},
		}
		require.NoError(t, store.Upsert(ctx, rows, "UST_RT"))

		got, err := store.Load(ctx, "UST_RT")
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.True(t, got[0].Date.Equal(day(2)))
		assert.Equal(t, 2.0, got[0].TenorYears)
		assert.InDelta(t, 4.50, got[0].Yield, 1e-9)
		assert.True(t, got[1].Date.Equal(day(2)))
		assert.Equal(t, 10.0, got[1].TenorYears)
		assert.InDelta(t, 4.20, got[1].Yield, 1e-9)
		assert.True(t, got[2].Date.Equal(day(3)))
		assert.InDelta(t, 4.25, got[2].Yield, 1e-9)
	})

	t.Run("Idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		rows := []domain.CurveRow{
			{Date: day(2), TenorYears: 2, Yield: 4.5},
			{Date: day(2), TenorYears: 10, Yield: 4.2},
		}
		require.NoError(t, store.Upsert(ctx, rows, "UST_IDEM"))
		first, err := store.Load(ctx, "UST_IDEM")
		require.NoError(t, err)

		require.NoError(t, store.Upsert(ctx, rows, "UST_IDEM"))
		second, err := store.Load(ctx, "UST_IDEM")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, second, 2)
	})

	t.Run("LastWriteWinsAcrossCalls", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, []domain.CurveRow{{Date: day(2), TenorYears: 2, Yield: 4.5}}, "UST_LWW"))
		require.NoError(t, store.Upsert(ctx, []domain.CurveRow{{Date: day(2), TenorYears: 2, Yield: 4.7}}, "UST_LWW"))

		got, err := store.Load(ctx, "UST_LWW")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 4.7, got[0].Yield, 1e-9)
	})

	t.Run("LastWriteWinsWithinBatch", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		rows := []domain.CurveRow{
			{Date: day(2), TenorYears: 2, Yield: 4.5},
			{Date: day(2), TenorYears: 2, Yield: 4.8},
		}
		require.NoError(t, store.Upsert(ctx, rows, "UST_BATCH"))

		got, err := store.Load(ctx, "UST_BATCH")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 4.8, got[0].Yield, 1e-9)
	})

	t.Run("CurvesAreIsolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, []domain.CurveRow{{Date: day(2), TenorYears: 2, Yield: 4.5}}, "UST_ISO"))
		require.NoError(t, store.Upsert(ctx, []domain.CurveRow{{Date: day(2), TenorYears: 2, Yield: 2.1}}, "BUND_ISO"))

		ust, err := store.Load(ctx, "UST_ISO")
		require.NoError(t, err)
		require.Len(t, ust, 1)
		assert.InDelta(t, 4.5, ust[0].Yield, 1e-9)

		bund, err := store.Load(ctx, "BUND_ISO")
		require.NoError(t, err)
		require.Len(t, bund, 1)
		assert.InDelta(t, 2.1, bund[0].Yield, 1e-9)
	})

	t.Run("EmptyLoad", func(t *testing.T) {
		store := newStore(t)

		got, err := store.Load(context.Background(), "NO_SUCH_CURVE")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("EmptyUpsert", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Upsert(context.Background(), nil, "UST_EMPTY"))
	})

	t.Run("InvalidBatchLeavesStateIntact", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, []domain.CurveRow{{Date: day(2), TenorYears: 2, Yield: 4.5}}, "UST_ATOMIC"))

		bad := []domain.CurveRow{
			{Date: day(2), TenorYears: 2, Yield: 9.9},
			{Date: day(3), TenorYears: 2, Yield: 4.6},
			{Date: day(3), TenorYears: 0, Yield: 4.6},
		}
		err := store.Upsert(ctx, bad, "UST_ATOMIC")
		assert.ErrorIs(t, err, storage.ErrInvalidInput)

		got, err := store.Load(ctx, "UST_ATOMIC")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 4.5, got[0].Yield, 1e-9)
	})

	t.Run("RejectsNonFinite", func(t *testing.T) {
		store := newStore(t)

		err := store.Upsert(context.Background(), []domain.CurveRow{{Date: day(2), TenorYears: 2, Yield: math.Inf(1)}}, "UST_INF")
		assert.ErrorIs(t, err, storage.ErrInvalidInput)

		err = store.Upsert(context.Background(), []domain.CurveRow{{Date: day(2), TenorYears: 2, Yield: 1}}, "")
		assert.ErrorIs(t, err, storage.ErrInvalidInput)
	})

	t.Run("PreEpochDates", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		early := time.Date(1962, 1, 2, 0, 0, 0, 0, time.UTC)
		rows := []domain.CurveRow{
			{Date: day(2), TenorYears: 10, Yield: 3.88},
			{Date: early, TenorYears: 10, Yield: 4.06},
		}
		require.NoError(t, store.Upsert(ctx, rows, "UST_1962"))

		got, err := store.Load(ctx, "UST_1962")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Date.Equal(early), "got %s", got[0].Date)
		assert.InDelta(t, 4.06, got[0].Yield, 1e-9)
		assert.True(t, got[1].Date.Equal(day(2)), "got %s", got[1].Date)
	})

	t.Run("FractionalTenors", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		rows := []domain.CurveRow{
			{Date: day(2), TenorYears: 1, Yield: 4.7},
			{Date: day(2), TenorYears: 0.25, Yield: 4.6},
			{Date: day(2), TenorYears: 0.5, Yield: 4.65},
		}
		require.NoError(t, store.Upsert(ctx, rows, "UST_FRAC"))

		got, err := store.Load(ctx, "UST_FRAC")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []float64{0.25, 0.5, 1}, []float64{got[0].TenorYears, got[1].TenorYears, got[2].TenorYears})
	})
}
