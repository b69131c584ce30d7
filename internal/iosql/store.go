// Package iosql implements the store contract over database/sql.
//
// The same SQL serves PostgreSQL, through the pgx stdlib adapter on top
// of a pgxpool, and SQLite, through the pure Go modernc driver. Dialect
// differences are limited to placeholders and date binding, both handled
// by predicate.Dialect. Every operation takes its own connection from
// the pool and returns it before the operation ends.
package iosql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnsys"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
)

func init() {
	err := sqlite.RegisterDeterministicScalarFunction(predicate.SQLiteLower, 1, unicodeLower)
	if err != nil {
		panic(err)
	}
}

// unicodeLower folds case of SQLite text the way strings.ToLower does.
// Other values pass unchanged.
func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

// Store reads and writes portal data with SQL.
type Store struct {
	db     *sql.DB
	d      predicate.Dialect
	reg    *fields.Registry
	source string
}

// New creates a store over an open database. The source names the
// database, see store.Reader.
func New(
	db *sql.DB,
	d predicate.Dialect,
	reg *fields.Registry,
	source string,
) *Store {
	return &Store{db: db, d: d, reg: reg, source: source}
}

// OpenPostgres creates a store that borrows connections from a pgx pool.
// Closing the store does not close the pool.
func OpenPostgres(pool *pgxpool.Pool, reg *fields.Registry) *Store {
	cfg := pool.Config().ConnConfig
	source := fmt.Sprintf("postgres://%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return New(stdlib.OpenDBFromPool(pool), predicate.Postgres, reg, source)
}

// OpenSQLite opens or creates an SQLite database file.
func OpenSQLite(ctx context.Context, path string, reg *fields.Registry) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, OpenStoreError(path, err)
	}
	path = abs
	if err = gnsys.MakeDir(filepath.Dir(path)); err != nil {
		return nil, OpenStoreError(path, err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, OpenStoreError(path, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, OpenStoreError(path, err)
	}
	return New(db, predicate.SQLite, reg, "sqlite:"+path), nil
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() predicate.Dialect {
	return s.d
}

// Source returns "postgres://host:port/database" or "sqlite:<path>".
func (s *Store) Source() string {
	return s.source
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// withConn runs fn on a dedicated connection and releases it on every
// path.
func (s *Store) withConn(
	ctx context.Context,
	op string,
	fn func(*sql.Conn) error,
) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return QueryError(op, err)
	}
	defer conn.Close()

	if err = fn(conn); err != nil {
		return QueryError(op, err)
	}
	return nil
}

var taxonColumns = []string{
	"id", "code",
	"kingdom_id", "phylum_id", "class_id", "order_id", "family_id",
	"genus_id", "species_id",
	"amplicon_id", "endemic", "pathogenic",
}

var abundanceColumns = []string{
	"sample_id", "taxon_id", "count", "proportional_abundance",
}

// sampleColumns lists the fixed sample columns followed by registry
// columns.
func (s *Store) sampleColumns() []fields.Field {
	return s.reg.Fields()
}

func selectList(alias string, cols []string) string {
	res := make([]string, len(cols))
	for i, v := range cols {
		res[i] = alias + "." + predicate.Quote(v)
	}
	return strings.Join(res, ", ")
}

func sampleSelectList(ff []fields.Field) string {
	cols := make([]string, len(ff))
	for i := range ff {
		cols[i] = ff[i].Column()
	}
	return selectList(schema.SampleAlias, cols)
}

const (
	fromTaxon  = " FROM " + schema.TaxonTable + " " + schema.TaxonAlias
	fromSample = " FROM " + schema.SampleTable + " " + schema.SampleAlias
	fromOTU    = " FROM " + schema.AbundanceTable + " " + schema.AbundanceAlias +
		" JOIN " + schema.TaxonTable + " " + schema.TaxonAlias +
		" ON " + schema.TaxonAlias + ".id = " + schema.AbundanceAlias + ".taxon_id" +
		" JOIN " + schema.SampleTable + " " + schema.SampleAlias +
		" ON " + schema.SampleAlias + ".id = " + schema.AbundanceAlias + ".sample_id"
)
