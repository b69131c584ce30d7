package iocache

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/gnames/gnotu/pkg/cache"
	"github.com/gnames/gnsys"
	_ "modernc.org/sqlite"
)

const createTable = `CREATE TABLE IF NOT EXISTS result_cache (
	fingerprint TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

// SQLite keeps cached results in an SQLite file, so several processes
// serving the same data share them.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens or creates the cache file at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := gnsys.MakeDir(filepath.Dir(path)); err != nil {
		return nil, OpenCacheError(path, err)
	}

	// busy_timeout lets concurrent writers from other processes wait
	// for the lock instead of failing.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, OpenCacheError(path, err)
	}
	if _, err = db.ExecContext(ctx, createTable); err != nil {
		_ = db.Close()
		return nil, OpenCacheError(path, err)
	}
	slog.Info("Result cache opened", "path", path)
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Get(
	ctx context.Context,
	fp cache.Fingerprint,
) ([]byte, bool, error) {
	var res []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM result_cache WHERE fingerprint = ?",
		fp.String(),
	).Scan(&res)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (s *SQLite) Set(
	ctx context.Context,
	fp cache.Fingerprint,
	val []byte,
) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO result_cache (fingerprint, payload) VALUES (?, ?)",
		fp.String(), val,
	)
	return err
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM result_cache"); err != nil {
		return ClearCacheError(s.path, err)
	}
	slog.Info("Result cache cleared", "path", s.path)
	return nil
}

// Close closes the cache file.
func (s *SQLite) Close() error {
	return s.db.Close()
}
