package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/idhash"
	"yieldcurve-lab/internal/storage"
)

// CurveStore implements storage.CurveStore using SQLite.
type CurveStore struct {
	db *DB
}

// NewCurveStore creates a new CurveStore.
func NewCurveStore(db *DB) *CurveStore {
	return &CurveStore{db: db}
}

// Compile-time interface check.
var _ storage.CurveStore = (*CurveStore)(nil)

const upsertQuery = `
	INSERT INTO yield_curve_points (point_id, date, curve_name, tenor_years, yield_value)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (date, curve_name, tenor_years) DO UPDATE SET
		yield_value = excluded.yield_value,
		updated_at  = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
`

// Upsert writes rows in a single transaction. Statements run in row order,
// so the later of two rows sharing a key wins.
func (s *CurveStore) Upsert(ctx context.Context, rows []domain.CurveRow, curveName string) error {
	if err := storage.ValidateBatch(rows, curveName); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		p := domain.NewCurvePoint(r, curveName)
		_, err := stmt.ExecContext(ctx,
			idhash.PointIDOf(p),
			domain.FormatDate(p.Date),
			p.CurveName,
			p.TenorYears,
			p.YieldValue,
		)
		if err != nil {
			return fmt.Errorf("upsert curve point %s: %w", p.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load retrieves all rows for a curve, ordered by (date, tenor).
// ISO dates sort lexically in chronological order.
func (s *CurveStore) Load(ctx context.Context, curveName string) ([]domain.CurveRow, error) {
	query := `
		SELECT date, tenor_years, yield_value
		FROM yield_curve_points
		WHERE curve_name = ?
		ORDER BY date ASC, tenor_years ASC
	`

	rows, err := s.db.QueryContext(ctx, query, curveName)
	if err != nil {
		return nil, fmt.Errorf("load curve %s: %w", curveName, err)
	}
	defer rows.Close()

	return scanCurveRows(rows)
}

// scanCurveRows scans multiple rows into a long-form table.
func scanCurveRows(rows *sql.Rows) ([]domain.CurveRow, error) {
	result := make([]domain.CurveRow, 0)

	for rows.Next() {
		var (
			dateStr string
			r       domain.CurveRow
		)
		if err := rows.Scan(&dateStr, &r.TenorYears, &r.Yield); err != nil {
			return nil, fmt.Errorf("scan curve row: %w", err)
		}

		d, err := domain.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
		}
		r.Date = d
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve rows: %w", err)
	}

	return result, nil
}
