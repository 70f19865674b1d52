package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"keytally/src/models"

	_ "modernc.org/sqlite" // SQLite driver.
)

//go:embed migrations
var migrationFS embed.FS

// CountsRepo is the durable side of the input counters. Each call acquires
// its own connection and releases it before returning.
type CountsRepo interface {
	// BootstrapSchema creates the key_presses table if it is missing.
	BootstrapSchema(ctx context.Context) error
	// InitializeVocabularyRows inserts a zero row for every id that has no row yet.
	InitializeVocabularyRows(ctx context.Context, ids []models.InputID) error
	LoadAll(ctx context.Context) (map[models.InputID]int64, error)
	// UpsertSnapshot writes every count with the same timestamp in one transaction.
	UpsertSnapshot(ctx context.Context, counts map[models.InputID]int64, at time.Time) error
	// ReportTopCounts lists rows with a positive count, highest first.
	ReportTopCounts(ctx context.Context) ([]models.InputCount, error)
	Close()
}

// Open selects a CountsRepo implementation from the DATABASE_URL scheme.
func Open(ctx context.Context, databaseURL string) (CountsRepo, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		pool, err := NewPool(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgresCountsRepo(pool), nil
	case strings.HasPrefix(databaseURL, "sqlite://"), strings.HasPrefix(databaseURL, "file:"):
		repo, err := OpenSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme in %q", databaseURL)
	}
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create DB pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	return pool, nil
}

// OpenSQLite opens dsn, a file path or a "file:" URI, creating parent
// directories for plain paths.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteCountsRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers; the scheduler and the final flush
	// would otherwise race for the database lock.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return NewSQLiteCountsRepo(db), nil
}

// migrationFiles returns the embedded migration statements for dialect in
// file name order.
func migrationFiles(dialect string) ([]string, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", dialect, err)
	}

	stmts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		raw, err := fs.ReadFile(migrationFS, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		stmts = append(stmts, string(raw))
	}
	return stmts, nil
}
