package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	k BLOB PRIMARY KEY,
	v BLOB NOT NULL
) WITHOUT ROWID`

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// SQLite is a Store backed by a single SQLite database file, using the
// pure-Go modernc.org/sqlite driver.
type SQLite struct {
	db   *sql.DB
	opts *Options
}

// NewSQLite opens (or creates) the database at path. The special path
// ":memory:" gives a private in-memory database. opts may be nil.
func NewSQLite(path string, opts *Options) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kv: open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		for _, p := range sqlitePragmas {
			if _, err := db.Exec(p); err != nil {
				db.Close()
				return nil, fmt.Errorf("kv: apply %q: %w", p, err)
			}
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kv: apply schema: %w", err)
	}
	return &SQLite{db: db, opts: opts}, nil
}

func (s *SQLite) Get(ctx context.Context, key Key) ([]byte, error) {
	k, err := s.opts.encode(key)
	if err != nil {
		return nil, err
	}
	var v []byte
	err = s.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, k).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

func (s *SQLite) Set(ctx context.Context, key Key, value []byte) error {
	return s.BatchSet(ctx, []Entry{{Key: key, Value: value}})
}

func (s *SQLite) Delete(ctx context.Context, key Key) error {
	return s.BatchDelete(ctx, []Key{key})
}

func (s *SQLite) List(ctx context.Context, prefix Key) iter.Seq2[Entry, error] {
	p, err := s.opts.scanPrefix(prefix)
	if err != nil {
		return errSeq(err)
	}
	return func(yield func(Entry, error) bool) {
		entries, err := s.scan(ctx, p)
		if err != nil {
			yield(Entry{}, err)
			return
		}
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// scan reads every row whose key starts with p. Rows are drained before
// returning so callers may write to the store while iterating.
func (s *SQLite) scan(ctx context.Context, p []byte) ([]Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(p) == 0 {
		rows, err = s.db.QueryContext(ctx, `SELECT k, v FROM kv ORDER BY k`)
	} else {
		// The separator is never 0xFF, so bumping the last byte of the
		// prefix gives an exclusive upper bound.
		hi := append([]byte(nil), p...)
		hi[len(hi)-1]++
		rows, err = s.db.QueryContext(ctx, `SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`, p, hi)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: s.opts.decode(k), Value: v})
	}
	return out, rows.Err()
}

func (s *SQLite) BatchSet(ctx context.Context, entries []Entry) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, e := range entries {
			k, err := s.opts.encode(e.Key)
			if err != nil {
				return err
			}
			v := e.Value
			if v == nil {
				v = []byte{}
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO kv (k, v) VALUES (?, ?)`, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) BatchDelete(ctx context.Context, keys []Key) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			k, err := s.opts.encode(key)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
