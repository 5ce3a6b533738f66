// Package curve assembles per-tenor series downloads into a long-form table.
package curve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/observability"
)

var (
	// ErrEmptySeriesMap is returned when Assemble is given no series.
	ErrEmptySeriesMap = errors.New("series map is empty")

	// ErrInvalidRange is returned when start is after end.
	ErrInvalidRange = errors.New("start date after end date")
)

// SeriesFetcher retrieves the raw observations of one series over a date range.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]domain.RawObservation, error)
}

// TenorSeries binds a tenor to the provider series that quotes it.
type TenorSeries struct {
	Tenor    float64 `yaml:"tenor" validate:"gt=0"`
	SeriesID string  `yaml:"series_id" validate:"required"`
}

// SeriesMap is the ordered tenor -> series mapping. Order is the fetch order.
type SeriesMap []TenorSeries

// DefaultUSTSeries is the US Treasury constant-maturity curve on FRED.
var DefaultUSTSeries = SeriesMap{
	{Tenor: 1, SeriesID: "DGS1"},
	{Tenor: 2, SeriesID: "DGS2"},
	{Tenor: 5, SeriesID: "DGS5"},
	{Tenor: 10, SeriesID: "DGS10"},
	{Tenor: 30, SeriesID: "DGS30"},
}

// Options configures an Assembler.
type Options struct {
	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// Assembler turns a series map into a long-form curve table.
type Assembler struct {
	fetcher SeriesFetcher
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewAssembler creates an Assembler backed by fetcher.
func NewAssembler(fetcher SeriesFetcher, opts Options) *Assembler {
	return &Assembler{
		fetcher: fetcher,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Assemble fetches every series in order, tags each observation with its
// tenor and returns the rows sorted by (date, tenor). Observations whose
// value is not a finite number, or whose date falls outside a non-zero
// start or end bound (inclusive), are excluded. Duplicate dates within a
// series are kept. Any fetch error aborts the call with no rows.
func (a *Assembler) Assemble(ctx context.Context, series SeriesMap, start, end time.Time) ([]domain.CurveRow, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeriesMap
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, domain.FormatDate(start), domain.FormatDate(end))
	}

	if !start.IsZero() {
		start = domain.NormalizeDate(start)
	}
	if !end.IsZero() {
		end = domain.NormalizeDate(end)
	}

	var rows []domain.CurveRow

	for _, ts := range series {
		obs, err := a.fetcher.FetchSeries(ctx, ts.SeriesID, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch series %s (tenor %v): %w", ts.SeriesID, ts.Tenor, err)
		}

		kept := 0
		for _, o := range obs {
			d := domain.NormalizeDate(o.Date)
			if (!start.IsZero() && d.Before(start)) || (!end.IsZero() && d.After(end)) {
				continue
			}
			v, ok := ParseValue(o.Value)
			if !ok {
				continue
			}
			rows = append(rows, domain.CurveRow{
				Date:       d,
				TenorYears: ts.Tenor,
				Yield:      v,
			})
			kept++
		}

		a.metrics.RecordObservations(ts.SeriesID, len(obs), len(obs)-kept)
		a.logger.Info().
			Str("series_id", ts.SeriesID).
			Float64("tenor", ts.Tenor).
			Int("rows", kept).
			Msg("series fetched")
	}

	if rows == nil {
		rows = []domain.CurveRow{}
	}
	domain.SortRows(rows)
	return rows, nil
}

// ParseValue coerces a raw observation value to a finite float.
// Missing-data sentinels (".", ""), NaN, infinities and garbage report false.
func ParseValue(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
