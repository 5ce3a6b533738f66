package domain

import (
	"sort"
	"strconv"
	"time"
)

// DateLayout is the calendar-date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// DefaultCurveName is the curve name used when none is configured.
const DefaultCurveName = "UST"

// RawObservation is a single observation as returned by a series provider.
// Value is kept textual; providers use sentinels such as "." for missing data.
type RawObservation struct {
	Date  time.Time // calendar date (UTC midnight)
	Value string    // raw value, numeric text or provider sentinel
}

// Observation is an observation whose value has been coerced to a finite number.
type Observation struct {
	Date  time.Time
	Value float64
}

// CurveRow is one row of the long-form table: a yield for a tenor on a date.
// The long-form table is the interchange shape between assembler, store and analytics.
type CurveRow struct {
	Date       time.Time // calendar date (UTC midnight)
	TenorYears float64   // years to maturity, > 0
	Yield      float64   // yield in provider units (percent or decimal)
}

// CurvePoint is the persisted unit. Identity is (Date, CurveName, TenorYears).
// Corresponds to yield_curve_points table.
type CurvePoint struct {
	Date       time.Time
	CurveName  string
	TenorYears float64
	YieldValue float64
}

// Key returns the readable composite identity, e.g. "2023-01-02_UST_2".
func (p CurvePoint) Key() string {
	return PointKey(p.Date, p.CurveName, p.TenorYears)
}

// Row drops the curve name.
func (p CurvePoint) Row() CurveRow {
	return CurveRow{Date: p.Date, TenorYears: p.TenorYears, Yield: p.YieldValue}
}

// NewCurvePoint tags a long-form row with its curve name.
func NewCurvePoint(r CurveRow, curveName string) CurvePoint {
	return CurvePoint{
		Date:       NormalizeDate(r.Date),
		CurveName:  curveName,
		TenorYears: r.TenorYears,
		YieldValue: r.Yield,
	}
}

// PointKey composes the identity key of a curve point.
func PointKey(date time.Time, curveName string, tenorYears float64) string {
	return FormatDate(date) + "_" + curveName + "_" + FormatTenor(tenorYears)
}

// FormatTenor renders a tenor with the shortest exact representation (2 -> "2", 0.5 -> "0.5").
func FormatTenor(tenorYears float64) string {
	return strconv.FormatFloat(tenorYears, 'f', -1, 64)
}

// NormalizeDate truncates t to its calendar date at 00:00 UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// CompareRows orders rows by (date ASC, tenor ASC).
func CompareRows(a, b CurveRow) int {
	switch {
	case a.Date.Before(b.Date):
		return -1
	case a.Date.After(b.Date):
		return 1
	case a.TenorYears < b.TenorYears:
		return -1
	case a.TenorYears > b.TenorYears:
		return 1
	}
	return 0
}

// SortRows sorts rows in place by (date, tenor). The sort is stable so rows
// sharing a key keep their relative order.
func SortRows(rows []CurveRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return CompareRows(rows[i], rows[j]) < 0
	})
}
