package storage

import (
	"context"

	"yieldcurve-lab/internal/domain"
)

// CurveStore provides access to yield_curve_points storage.
//
// Points are identified by (date, curve_name, tenor_years). Writes are upserts:
// re-writing a key replaces its yield, it never adds a second record.
type CurveStore interface {
	// Upsert writes rows under curveName atomically. Within one call the later
	// row wins when two rows share a key. Returns ErrInvalidInput, with nothing
	// written, if any row is malformed or curveName is empty.
	Upsert(ctx context.Context, rows []domain.CurveRow, curveName string) error

	// Load retrieves every row stored for curveName, ordered by (date ASC, tenor ASC).
	// Returns an empty slice when the curve has no records.
	Load(ctx context.Context, curveName string) ([]domain.CurveRow, error)
}
