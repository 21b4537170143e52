// Package sqlite stores ledgers in a single SQLite database. Entry order is
// the autoincrement id, so Undo always removes the newest row of a ledger.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"textledger/internal/core"
	"textledger/internal/ledger"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and applies migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key ledger.Key) (bool, error) {
	return exists(ctx, s.db, key)
}

func (s *Store) Append(ctx context.Context, key ledger.Key, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO ledgers (owner, year) VALUES (?, ?)`,
			key.Owner, key.Year); err != nil {
			return fmt.Errorf("create ledger: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (owner, year, month, day, amount, category, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			key.Owner, key.Year, e.Month, e.Day, e.Amount.String(), e.Category, e.Description); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		return nil
	})
}

func (s *Store) Entries(ctx context.Context, key ledger.Key) ([]core.Entry, error) {
	ok, err := exists(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT month, day, amount, category, description
		 FROM entries WHERE owner = ? AND year = ? ORDER BY id`,
		key.Owner, key.Year)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var items []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return items, nil
}

func (s *Store) Undo(ctx context.Context, key ledger.Key) (core.Entry, error) {
	var removed core.Entry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, month, day, amount, category, description
			 FROM entries WHERE owner = ? AND year = ? ORDER BY id DESC LIMIT 1`,
			key.Owner, key.Year)

		var id int64
		var amount string
		err := row.Scan(&id, &removed.Month, &removed.Day, &amount, &removed.Category, &removed.Description)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrUndoUnderflow
		}
		if err != nil {
			return fmt.Errorf("select last entry: %w", err)
		}
		if removed.Amount, err = core.ParseAmount(amount); err != nil {
			return fmt.Errorf("entry %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Entry{}, err
	}
	return removed, nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q queryer, key ledger.Key) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM ledgers WHERE owner = ? AND year = ?`,
		key.Owner, key.Year).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check ledger: %w", err)
	}
	return n > 0, nil
}

func scanEntry(rows *sql.Rows) (core.Entry, error) {
	var e core.Entry
	var amount string
	if err := rows.Scan(&e.Month, &e.Day, &amount, &e.Category, &e.Description); err != nil {
		return core.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.Entry{}, err
	}
	e.Amount = amt
	return e, nil
}
