// Package analytics reshapes the long-form curve table and derives slope metrics.
package analytics

import (
	"sort"
	"time"

	"yieldcurve-lab/internal/domain"
)

// WideTable is one row per date and one column per tenor. Cells absent from
// Values are missing, never zero.
type WideTable struct {
	Dates  []time.Time // ascending
	Tenors []float64   // ascending, union over all dates
	Values map[time.Time]map[float64]float64
}

// Cell returns the yield at (date, tenor) and whether it is present.
func (w WideTable) Cell(date time.Time, tenor float64) (float64, bool) {
	row, ok := w.Values[domain.NormalizeDate(date)]
	if !ok {
		return 0, false
	}
	v, ok := row[tenor]
	return v, ok
}

// Pivot builds the wide table. Cells that occur more than once are averaged.
func Pivot(rows []domain.CurveRow) WideTable {
	type acc struct {
		sum float64
		n   int
	}

	cells := make(map[time.Time]map[float64]*acc)
	tenorSet := make(map[float64]struct{})

	for _, r := range rows {
		d := domain.NormalizeDate(r.Date)
		byTenor, ok := cells[d]
		if !ok {
			byTenor = make(map[float64]*acc)
			cells[d] = byTenor
		}
		a, ok := byTenor[r.TenorYears]
		if !ok {
			a = &acc{}
			byTenor[r.TenorYears] = a
		}
		a.sum += r.Yield
		a.n++
		tenorSet[r.TenorYears] = struct{}{}
	}

	w := WideTable{
		Dates:  make([]time.Time, 0, len(cells)),
		Tenors: make([]float64, 0, len(tenorSet)),
		Values: make(map[time.Time]map[float64]float64, len(cells)),
	}

	for d, byTenor := range cells {
		w.Dates = append(w.Dates, d)
		row := make(map[float64]float64, len(byTenor))
		for tenor, a := range byTenor {
			if a.n == 1 {
				row[tenor] = a.sum
			} else {
				row[tenor] = a.sum / float64(a.n)
			}
		}
		w.Values[d] = row
	}
	for tenor := range tenorSet {
		w.Tenors = append(w.Tenors, tenor)
	}

	sort.Slice(w.Dates, func(i, j int) bool { return w.Dates[i].Before(w.Dates[j]) })
	sort.Float64s(w.Tenors)
	return w
}

// Unpivot flattens a wide table back into long form, sorted by (date, tenor).
// Missing cells produce no row.
func Unpivot(w WideTable) []domain.CurveRow {
	rows := make([]domain.CurveRow, 0)
	for _, d := range w.Dates {
		row := w.Values[d]
		for _, tenor := range w.Tenors {
			v, ok := row[tenor]
			if !ok {
				continue
			}
			rows = append(rows, domain.CurveRow{Date: d, TenorYears: tenor, Yield: v})
		}
	}
	return rows
}
