package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/idhash"
	"yieldcurve-lab/internal/storage"
)

// CurveStore implements storage.CurveStore using PostgreSQL.
type CurveStore struct {
	pool *Pool
}

// NewCurveStore creates a new CurveStore.
func NewCurveStore(pool *Pool) *CurveStore {
	return &CurveStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CurveStore = (*CurveStore)(nil)

const upsertQuery = `
	INSERT INTO yield_curve_points (
		point_id, date, curve_name, tenor_years, yield_value
	) VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (date, curve_name, tenor_years) DO UPDATE SET
		yield_value = EXCLUDED.yield_value,
		updated_at  = now()
`

// Upsert writes rows in one transaction. Each row is its own statement, so
// the later of two rows sharing a key wins; a single INSERT with both rows
// would fail with "cannot affect row a second time".
func (s *CurveStore) Upsert(ctx context.Context, rows []domain.CurveRow, curveName string) error {
	if err := storage.ValidateBatch(rows, curveName); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		p := domain.NewCurvePoint(r, curveName)
		_, err := tx.Exec(ctx, upsertQuery,
			idhash.PointIDOf(p),
			p.Date,
			p.CurveName,
			p.TenorYears,
			p.YieldValue,
		)
		if err != nil {
			if isCheckViolation(err) {
				return fmt.Errorf("%w: %s: %v", storage.ErrInvalidInput, p.Key(), err)
			}
			return fmt.Errorf("upsert curve point %s: %w", p.Key(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Load retrieves all rows for a curve, ordered by (date, tenor).
func (s *CurveStore) Load(ctx context.Context, curveName string) ([]domain.CurveRow, error) {
	query := `
		SELECT date, tenor_years, yield_value
		FROM yield_curve_points
		WHERE curve_name = $1
		ORDER BY date ASC, tenor_years ASC
	`

	rows, err := s.pool.Query(ctx, query, curveName)
	if err != nil {
		return nil, fmt.Errorf("load curve %s: %w", curveName, err)
	}
	defer rows.Close()

	return scanCurveRows(rows)
}

// scanCurveRows scans multiple rows into a long-form table.
func scanCurveRows(rows pgx.Rows) ([]domain.CurveRow, error) {
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
