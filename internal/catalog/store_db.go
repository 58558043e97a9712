package catalog

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 10 * time.Second

	pgUndefinedTable = "42P01"
)

// PostgresStorage keeps the same line format as FileStorage, one row per
// line, and rewrites the table in a single transaction per flush.
type PostgresStorage struct {
	db *sql.DB
}

// OpenPostgres opens a pool through the pgx database/sql driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS inventory_lines (
				line_no INTEGER PRIMARY KEY,
				line    TEXT NOT NULL
			)
		`)
		return err
	})
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStorage) ReadLines(ctx context.Context, fn func(line string) error) error {
	var lines []string

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT line
			FROM inventory_lines
			ORDER BY line_no ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		lines = make([]string, 0, 64)
		for rows.Next() {
			var l string
			if err := rows.Scan(&l); err != nil {
				return err
			}
			lines = append(lines, l)
		}
		return rows.Err()
	})
	if err := readResult(err, len(lines)); err != nil {
		return err
	}

	for _, l := range lines {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStorage) WriteLines(ctx context.Context, lines iter.Seq[string]) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_lines`); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO inventory_lines (line_no, line)
			VALUES ($1, $2)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		n := 0
		for l := range lines {
			if _, err := stmt.ExecContext(ctx, n, l); err != nil {
				return err
			}
			n++
		}

		return tx.Commit()
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

// readResult maps a missing or empty table to ErrNoSnapshot.
func readResult(err error, rows int) error {
	if isUndefinedTable(err) || (err == nil && rows == 0) {
		return ErrNoSnapshot
	}
	return err
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
