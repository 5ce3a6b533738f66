package storage

import (
	"fmt"
	"math"
	"time"

	"yieldcurve-lab/internal/domain"
)

// ValidateBatch checks a batch before any backend touches storage.
func ValidateBatch(rows []domain.CurveRow, curveName string) error {
	if curveName == "" {
		return fmt.Errorf("%w: empty curve name", ErrInvalidInput)
	}
	for i, r := range rows {
		if r.Date.IsZero() {
			return fmt.Errorf("%w: row %d has zero date", ErrInvalidInput, i)
		}
		if !(r.TenorYears > 0) || math.IsInf(r.TenorYears, 0) {
			return fmt.Errorf("%w: row %d has tenor %v", ErrInvalidInput, i, r.TenorYears)
		}
		if math.IsNaN(r.Yield) || math.IsInf(r.Yield, 0) {
			return fmt.Errorf("%w: row %d has non-finite yield", ErrInvalidInput, i)
		}
	}
	return nil
}

// ValidateDateRange rejects rows whose date falls outside [min, max].
// Backends with a bounded date type call it after ValidateBatch.
func ValidateDateRange(rows []domain.CurveRow, min, max time.Time) error {
	for i, r := range rows {
		d := domain.NormalizeDate(r.Date)
		if d.Before(min) || d.After(max) {
			return fmt.Errorf("%w: row %d date %s outside %s..%s", ErrInvalidInput, i,
				domain.FormatDate(d), domain.FormatDate(min), domain.FormatDate(max))
		}
	}
	return nil
}

// Dedupe collapses rows sharing (date, tenor) so that the last occurrence wins,
// preserving the position of each key's first occurrence.
func Dedupe(rows []domain.CurveRow) []domain.CurveRow {
	type key struct {
		date  int64
		tenor float64
	}
	index := make(map[key]int, len(rows))
	out := make([]domain.CurveRow, 0, len(rows))
	for _, r := range rows {
		r.Date = domain.NormalizeDate(r.Date)
		k := key{r.Date.Unix(), r.TenorYears}
		if i, ok := index[k]; ok {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}
