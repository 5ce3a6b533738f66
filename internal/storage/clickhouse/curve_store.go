package clickhouse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/idhash"
	"yieldcurve-lab/internal/storage"
)

// Range of the Date32 column type.
var (
	MinDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(2299, 12, 31, 0, 0, 0, 0, time.UTC)
)

// CurveStore implements storage.CurveStore using a ReplacingMergeTree table.
// Uniqueness is enforced at read time: every write carries a strictly
// increasing version and Load reads with FINAL.
type CurveStore struct {
	conn *Conn

	mu          sync.Mutex
	lastVersion uint64
}

// NewCurveStore creates a new CurveStore.
func NewCurveStore(conn *Conn) *CurveStore {
	return &CurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CurveStore = (*CurveStore)(nil)

// nextVersion returns a wall-clock version that never repeats within this process.
func (s *CurveStore) nextVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := uint64(time.Now().UnixNano())
	if v <= s.lastVersion {
		v = s.lastVersion + 1
	}
	s.lastVersion = v
	return v
}

// Upsert appends one version of every key in rows. Duplicates within the
// batch are collapsed first so the last one wins under a shared version.
func (s *CurveStore) Upsert(ctx context.Context, rows []domain.CurveRow, curveName string) error {
	if err := storage.ValidateBatch(rows, curveName); err != nil {
		return err
	}
	if err := storage.ValidateDateRange(rows, MinDate, MaxDate); err != nil {
		return err
	}
	rows = storage.Dedupe(rows)
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO yield_curve_points (
			curve_name, date, tenor_years, yield_value, point_id, version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	version := s.nextVersion()
	for _, r := range rows {
		p := domain.NewCurvePoint(r, curveName)
		err = batch.Append(
			p.CurveName, p.Date, p.TenorYears, p.YieldValue,
			idhash.PointIDOf(p), version,
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Load retrieves the latest version of each point for a curve, ordered by (date, tenor).
func (s *CurveStore) Load(ctx context.Context, curveName string) ([]domain.CurveRow, error) {
	query := `
		SELECT date, tenor_years, yield_value
		FROM yield_curve_points FINAL
		WHERE curve_name = ?
		ORDER BY date ASC, tenor_years ASC
	`

	rows, err := s.conn.Query(ctx, query, curveName)
	if err != nil {
		return nil, fmt.Errorf("load curve %s: %w", curveName, err)
	}
	defer rows.Close()

	return scanCurveRows(rows)
}

// scanCurveRows scans multiple rows.
func scanCurveRows(rows chRows) ([]domain.CurveRow, error) {
	result := make([]domain.CurveRow, 0)

	for rows.Next() {
		var r domain.CurveRow
		if err := rows.Scan(&r.Date, &r.TenorYears, &r.Yield); err != nil {
			return nil, fmt.Errorf("scan curve row: %w", err)
		}
		r.Date = domain.NormalizeDate(r.Date)
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve rows: %w", err)
	}

	return result, nil
}
