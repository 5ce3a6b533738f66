// Package stores opens a CurveStore backend from a storage-location URI.
//
// Supported locations:
//
//	memory://                          process-local, lost on exit
//	sqlite:///relative/path.db         embedded file, path relative to the working directory
//	sqlite:////absolute/path.db        embedded file, absolute path
//	sqlite://  or  sqlite:///:memory:  embedded in-memory database
//	postgres://... | postgresql://...  PostgreSQL via pgx
//	clickhouse://host:port/database    ClickHouse native protocol
//
// Schema migrations are applied on open for every persistent backend.
package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"yieldcurve-lab/internal/observability"
	"yieldcurve-lab/internal/storage"
	chstore "yieldcurve-lab/internal/storage/clickhouse"
	"yieldcurve-lab/internal/storage/memory"
	"yieldcurve-lab/internal/storage/migrations"
	"yieldcurve-lab/internal/storage/postgres"
	"yieldcurve-lab/internal/storage/sqlite"
)

// ErrUnsupportedLocation is returned for a storage location with an unknown scheme.
var ErrUnsupportedLocation = errors.New("unsupported storage location")

// Backend names, also used as the "database" metric label.
const (
	BackendMemory     = "memory"
	BackendSqlite     = "sqlite"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

// Options configures Open.
type Options struct {
	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// Handle is an open store plus the resources behind it.
type Handle struct {
	Store   storage.CurveStore
	Backend string
	closeFn func() error
}

// Close releases the underlying connection. Safe to call more than once.
func (h *Handle) Close() error {
	if h.closeFn == nil {
		return nil
	}
	fn := h.closeFn
	h.closeFn = nil
	return fn()
}

// Location is a parsed storage location.
type Location struct {
	Backend string
	// Target is the file path for sqlite and the DSN for postgres and clickhouse.
	Target string
}

// ParseLocation classifies a storage-location URI.
func ParseLocation(location string) (Location, error) {
	loc := strings.TrimSpace(location)
	scheme, rest, ok := strings.Cut(loc, "://")
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnsupportedLocation, location)
	}

	switch strings.ToLower(scheme) {
	case "memory":
		return Location{Backend: BackendMemory}, nil
	case "sqlite", "sqlite3":
		return Location{Backend: BackendSqlite, Target: sqlitePath(rest)}, nil
	case "postgres", "postgresql":
		return Location{Backend: BackendPostgres, Target: loc}, nil
	case "clickhouse":
		return Location{Backend: BackendClickhouse, Target: loc}, nil
	}

	return Location{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedLocation, scheme)
}

// sqlitePath maps the part after "sqlite://" to a file path:
// "/rel.db" -> "rel.db", "//abs.db" -> "/abs.db", "" -> ":memory:".
func sqlitePath(rest string) string {
	if rest == "" || rest == "/" || rest == "/:memory:" {
		return ":memory:"
	}
	return strings.TrimPrefix(rest, "/")
}

// Open parses location, connects, migrates and returns the store.
func Open(ctx context.Context, location string, opts Options) (*Handle, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	h, err := open(ctx, loc)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug().
		Str("backend", h.Backend).
		Msg("curve store opened")

	h.Store = observability.InstrumentStore(h.Store, h.Backend, opts.Metrics)
	return h, nil
}

func open(ctx context.Context, loc Location) (*Handle, error) {
	switch loc.Backend {
	case BackendMemory:
		return &Handle{Store: memory.NewCurveStore(), Backend: loc.Backend}, nil

	case BackendSqlite:
		db, err := sqlite.Open(ctx, loc.Target)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunSqliteMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return &Handle{Store: sqlite.NewCurveStore(db), Backend: loc.Backend, closeFn: db.Close}, nil

	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, loc.Target)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		closeFn := func() error {
			pool.Close()
			return nil
		}
		return &Handle{Store: postgres.NewCurveStore(pool), Backend: loc.Backend, closeFn: closeFn}, nil

	case BackendClickhouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, loc.Target)
		if err != nil {
			return nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		return &Handle{Store: chstore.NewCurveStore(conn), Backend: loc.Backend, closeFn: conn.Close}, nil
	}

	return nil, fmt.Errorf("%w: backend %q", ErrUnsupportedLocation, loc.Backend)
}
