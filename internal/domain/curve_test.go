package domain

import (
	"testing"
	"time"
)

func TestPointKey(t *testing.T) {
	d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		tenor float64
		want  string
	}{
		{2.0, "2023-01-02_UST_2"},
		{10.0, "2023-01-02_UST_10"},
		{0.5, "2023-01-02_UST_0.5"},
	}

	for _, tt := range tests {
		got := CurvePoint{Date: d, CurveName: "UST", TenorYears: tt.tenor}.Key()
		if got != tt.want {
			t.Errorf("Key(%v) = %q, want %q", tt.tenor, got, tt.want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	in := time.Date(2023, 1, 2, 22, 30, 0, 0, loc)

	got := NormalizeDate(in)
	want := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NormalizeDate = %v, want %v", got, want)
	}
}

func TestSortRows_DateThenTenor(t *testing.T) {
	d1 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	rows := []CurveRow{
		{Date: d2, TenorYears: 2, Yield: 1},
		{Date: d1, TenorYears: 10, Yield: 2},
		{Date: d1, TenorYears: 2, Yield: 3},
		{Date: d2, TenorYears: 0.5, Yield: 4},
	}
	SortRows(rows)

	want := []float64{3, 2, 4, 1}
	for i, r := range rows {
		if r.Yield != want[i] {
			t.Fatalf("row %d: expected yield %v, got %v", i, want[i], r.Yield)
		}
	}
}

func TestSortRows_StableForDuplicates(t *testing.T) {
	d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := []CurveRow{
		{Date: d, TenorYears: 2, Yield: 1},
		{Date: d, TenorYears: 2, Yield: 2},
	}
	SortRows(rows)

	if rows[0].Yield != 1 || rows[1].Yield != 2 {
		t.Errorf("duplicate keys reordered: %+v", rows)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2023-01-02")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if FormatDate(got) != "2023-01-02" {
		t.Errorf("round trip mismatch: %s", FormatDate(got))
	}

	if _, err := ParseDate("01/02/2023"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
