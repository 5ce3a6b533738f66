package memory

import (
	"context"
	"sync"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/idhash"
	"yieldcurve-lab/internal/storage"
)

// CurveStore is an in-memory implementation of storage.CurveStore.
type CurveStore struct {
	mu   sync.RWMutex
	data map[string]domain.CurvePoint // keyed by point_id
}

// NewCurveStore creates a new in-memory curve store.
func NewCurveStore() *CurveStore {
	return &CurveStore{
		data: make(map[string]domain.CurvePoint),
	}
}

// Upsert writes rows atomically. Later rows win on key collision.
func (s *CurveStore) Upsert(_ context.Context, rows []domain.CurveRow, curveName string) error {
	if err := storage.ValidateBatch(rows, curveName); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	// Stage changes first so a failure never leaves a partial batch visible.
	staged := make(map[string]domain.CurvePoint, len(rows))
	for _, r := range rows {
		p := domain.NewCurvePoint(r, curveName)
		staged[idhash.PointIDOf(p)] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range staged {
		s.data[id] = p
	}
	return nil
}

// Load retrieves all rows for a curve, ordered by (date, tenor).
func (s *CurveStore) Load(_ context.Context, curveName string) ([]domain.CurveRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CurveRow, 0)
	for _, p := range s.data {
		if p.CurveName == curveName {
			result = append(result, p.Row())
		}
	}

	domain.SortRows(result)
	return result, nil
}

// Len returns the number of stored points across all curves.
func (s *CurveStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.CurveStore = (*CurveStore)(nil)
