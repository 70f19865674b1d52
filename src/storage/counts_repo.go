package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"keytally/src/models"
)

// PostgresCountsRepo stores counters in Postgres.
type PostgresCountsRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCountsRepo(pool *pgxpool.Pool) *PostgresCountsRepo {
	return &PostgresCountsRepo{pool: pool}
}

func (r *PostgresCountsRepo) Close() {
	r.pool.Close()
}

func (r *PostgresCountsRepo) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire DB connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

func (r *PostgresCountsRepo) BootstrapSchema(ctx context.Context) error {
	stmts, err := migrationFiles("postgres")
	if err != nil {
		return err
	}
	return r.withConn(ctx, func(conn *pgxpool.Conn) error {
		for idx, stmt := range stmts {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %d: %w", idx+1, err)
			}
		}
		return nil
	})
}

func (r *PostgresCountsRepo) InitializeVocabularyRows(ctx context.Context, ids []models.InputID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(`
			INSERT INTO key_presses (input_name, press_count, last_updated)
			VALUES ($1, 0, $2)
			ON CONFLICT (input_name) DO NOTHING
		`, string(id), now)
	}
	return r.withConn(ctx, func(conn *pgxpool.Conn) error {
		if err := conn.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("initialize input rows: %w", err)
		}
		return nil
	})
}

func (r *PostgresCountsRepo) LoadAll(ctx context.Context) (map[models.InputID]int64, error) {
	counts := make(map[models.InputID]int64)
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT input_name, COALESCE(press_count, 0) FROM key_presses`)
		if err != nil {
			return fmt.Errorf("query input counts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			var count int64
			if err := rows.Scan(&name, &count); err != nil {
				return fmt.Errorf("scan input count row: %w", err)
			}
			counts[models.InputID(name)] = count
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate input count rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *PostgresCountsRepo) UpsertSnapshot(ctx context.Context, counts map[models.InputID]int64, at time.Time) error {
	if len(counts) == 0 {
		return nil
	}
	stamp := at.UTC()
	batch := &pgx.Batch{}
	for _, id := range sortedIDs(counts) {
		batch.Queue(`
			INSERT INTO key_presses (input_name, press_count, last_updated)
			VALUES ($1, $2, $3)
			ON CONFLICT (input_name) DO UPDATE
			SET press_count = EXCLUDED.press_count,
				last_updated = EXCLUDED.last_updated
		`, string(id), counts[id], stamp)
	}

	return r.withConn(ctx, func(conn *pgxpool.Conn) error {
		tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert input counts: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

func (r *PostgresCountsRepo) ReportTopCounts(ctx context.Context) ([]models.InputCount, error) {
	report := make([]models.InputCount, 0)
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT input_name, press_count, last_updated
			FROM key_presses
			WHERE press_count > 0
			ORDER BY press_count DESC, input_name ASC
		`)
		if err != nil {
			return fmt.Errorf("query top counts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			var row models.InputCount
			var lastUpdated *time.Time
			if err := rows.Scan(&name, &row.PressCount, &lastUpdated); err != nil {
				return fmt.Errorf("scan top count row: %w", err)
			}
			row.InputName = models.InputID(name)
			if lastUpdated != nil {
				row.LastUpdated = *lastUpdated
			}
			report = append(report, row)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate top count rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// sortedIDs orders rows so concurrent flushes lock them in the same order.
func sortedIDs(counts map[models.InputID]int64) []models.InputID {
	ids := make([]models.InputID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
