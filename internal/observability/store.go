package observability

import (
	"context"
	"time"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/storage"
)

// InstrumentedStore records query latency, errors and row counts around a CurveStore.
type InstrumentedStore struct {
	next     storage.CurveStore
	database string
	metrics  *Metrics
}

// Compile-time interface check.
var _ storage.CurveStore = (*InstrumentedStore)(nil)

// InstrumentStore wraps next. database labels the backend ("sqlite", "postgres", ...).
// A nil m returns next unchanged.
func InstrumentStore(next storage.CurveStore, database string, m *Metrics) storage.CurveStore {
	if m == nil {
		return next
	}
	return &InstrumentedStore{next: next, database: database, metrics: m}
}

// Upsert delegates and records the batch size on success.
func (s *InstrumentedStore) Upsert(ctx context.Context, rows []domain.CurveRow, curveName string) error {
	start := time.Now()
	err := s.next.Upsert(ctx, rows, curveName)
	s.metrics.RecordDBQuery(s.database, "upsert", time.Since(start).Seconds(), err)
	if err == nil {
		s.metrics.RecordRows("upsert", curveName, len(rows))
	}
	return err
}

// Load delegates and records the number of rows returned.
func (s *InstrumentedStore) Load(ctx context.Context, curveName string) ([]domain.CurveRow, error) {
	start := time.Now()
	rows, err := s.next.Load(ctx, curveName)
	s.metrics.RecordDBQuery(s.database, "load", time.Since(start).Seconds(), err)
	if err == nil {
		s.metrics.RecordRows("load", curveName, len(rows))
	}
	return rows, err
}
