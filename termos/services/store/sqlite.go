package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db *sql.DB

	put, get, list, del *sql.Stmt
}

// OpenSQLite opens (creating if needed) the database at dsn.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.WithMessage(err, "opening SQLite DB")
	}
	// mattn/go-sqlite3 does not handle concurrent writers well; a single
	// connection serializes all access.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			ns         TEXT    NOT NULL,
			key        TEXT    NOT NULL,
			value      BLOB    NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (ns, key)
		);
	`); err != nil {
		db.Close()
		return nil, errors.WithMessage(err, "records table bootstrap")
	}

	s := &SQLite{db: db}
	for _, p := range []struct {
		stmt **sql.Stmt
		sql  string
	}{
		{&s.put, `INSERT INTO records (ns, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(ns, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`},
		{&s.get, `SELECT value FROM records WHERE ns = ? AND key = ?`},
		{&s.list, `SELECT key FROM records WHERE ns = ? ORDER BY key`},
		{&s.del, `DELETE FROM records WHERE ns = ? AND key = ?`},
	} {
		if *p.stmt, err = db.Prepare(p.sql); err != nil {
			db.Close()
			return nil, errors.WithMessagef(err, "preparing statement %q", p.sql)
		}
	}
	return s, nil
}

func (s *SQLite) Put(ctx context.Context, ns, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.put.ExecContext(ctx, ns, key, value, time.Now().UnixNano())
	return errors.WithMessage(err, "put")
}

func (s *SQLite) Get(ctx context.Context, ns, key string) ([]byte, error) {
	var v []byte
	switch err := s.get.QueryRowContext(ctx, ns, key).Scan(&v); err {
	case nil:
		return v, nil
	case sql.ErrNoRows:
		return nil, ErrNotFound
	default:
		return nil, errors.WithMessage(err, "get")
	}
}

func (s *SQLite) List(ctx context.Context, ns string) ([]string, error) {
	rows, err := s.list.QueryContext(ctx, ns)
	if err != nil {
		return nil, errors.WithMessage(err, "list")
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.WithMessage(err, "list scan")
		}
		keys = append(keys, k)
	}
	return keys, errors.WithMessage(rows.Err(), "list rows")
}

func (s *SQLite) Delete(ctx context.Context, ns, key string) error {
	res, err := s.del.ExecContext(ctx, ns, key)
	if err != nil {
		return errors.WithMessage(err, "delete")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Close() error {
	for _, stmt := range []*sql.Stmt{s.put, s.get, s.list, s.del} {
		stmt.Close()
	}
	return s.db.Close()
}
