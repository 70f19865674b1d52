package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"keytally/src/models"
)

// SQLiteCountsRepo stores counters in a local SQLite database. Timestamps are
// kept as RFC 3339 text in UTC.
type SQLiteCountsRepo struct {
	db *sql.DB
}

func NewSQLiteCountsRepo(db *sql.DB) *SQLiteCountsRepo {
	return &SQLiteCountsRepo{db: db}
}

func (r *SQLiteCountsRepo) Close() {
	_ = r.db.Close()
}

func (r *SQLiteCountsRepo) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire sqlite connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

func (r *SQLiteCountsRepo) BootstrapSchema(ctx context.Context) error {
	stmts, err := migrationFiles("sqlite")
	if err != nil {
		return err
	}
	return r.withConn(ctx, func(conn *sql.Conn) error {
		for idx, stmt := range stmts {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %d: %w", idx+1, err)
			}
		}
		return nil
	})
}

func (r *SQLiteCountsRepo) InitializeVocabularyRows(ctx context.Context, ids []models.InputID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return r.inTx(ctx, `
		INSERT INTO key_presses (input_name, press_count, last_updated)
		VALUES (?, 0, ?)
		ON CONFLICT (input_name) DO NOTHING
	`, func(stmt *sql.Stmt) error {
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, string(id), now); err != nil {
				return fmt.Errorf("initialize input row %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *SQLiteCountsRepo) LoadAll(ctx context.Context) (map[models.InputID]int64, error) {
	counts := make(map[models.InputID]int64)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT input_name, COALESCE(press_count, 0) FROM key_presses`)
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

func (r *SQLiteCountsRepo) UpsertSnapshot(ctx context.Context, counts map[models.InputID]int64, at time.Time) error {
	if len(counts) == 0 {
		return nil
	}
	stamp := at.UTC().Format(time.RFC3339Nano)
	return r.inTx(ctx, `
		INSERT INTO key_presses (input_name, press_count, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT (input_name) DO UPDATE
		SET press_count = excluded.press_count,
			last_updated = excluded.last_updated
	`, func(stmt *sql.Stmt) error {
		for _, id := range sortedIDs(counts) {
			if _, err := stmt.ExecContext(ctx, string(id), counts[id], stamp); err != nil {
				return fmt.Errorf("upsert input count %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *SQLiteCountsRepo) ReportTopCounts(ctx context.Context) ([]models.InputCount, error) {
	report := make([]models.InputCount, 0)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
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
			var lastUpdated sql.NullString
			if err := rows.Scan(&name, &row.PressCount, &lastUpdated); err != nil {
				return fmt.Errorf("scan top count row: %w", err)
			}
			row.InputName = models.InputID(name)
			if lastUpdated.Valid && lastUpdated.String != "" {
				parsed, err := time.Parse(time.RFC3339Nano, lastUpdated.String)
				if err != nil {
					return fmt.Errorf("parse last_updated for %s: %w", name, err)
				}
				row.LastUpdated = parsed
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

// inTx runs fn with query prepared inside a single transaction.
func (r *SQLiteCountsRepo) inTx(ctx context.Context, query string, fn func(stmt *sql.Stmt) error) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		if err := fn(stmt); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
