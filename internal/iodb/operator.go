// Package iodb manages the PostgreSQL connection pool of the portal
// database. It implements db.Operator.
package iodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gnames/gnotu/pkg/config"
	"github.com/gnames/gnotu/pkg/db"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxOperator implements db.Operator with a pgxpool.
type PgxOperator struct {
	pool *pgxpool.Pool
}

// NewPgxOperator creates an operator that is not connected yet.
func NewPgxOperator() db.Operator {
	return &PgxOperator{}
}

// DSN returns the connection string of cfg.
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)
}

// Connect creates the pool and checks that the server answers.
func (p *PgxOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
	maxConns int,
) error {
	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return ConnectionError(cfg.Host, cfg.Port, cfg.Database, cfg.User, err)
	}

	// Every query borrows a connection for its own duration only, so a
	// small pool serves concurrent requests.
	if maxConns < 2 {
		maxConns = 2
	}
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return ConnectionError(cfg.Host, cfg.Port, cfg.Database, cfg.User, err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return ConnectionError(cfg.Host, cfg.Port, cfg.Database, cfg.User, err)
	}

	slog.Debug("Connected to PostgreSQL",
		"host", cfg.Host, "database", cfg.Database, "max_conns", maxConns)
	p.pool = pool
	return nil
}

// Close releases all connections.
func (p *PgxOperator) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

// Pool returns the connection pool, nil before Connect.
func (p *PgxOperator) Pool() *pgxpool.Pool {
	return p.pool
}

// TableExists checks for a table in the current schema.
func (p *PgxOperator) TableExists(
	ctx context.Context,
	tableName string,
) (bool, error) {
	if p.pool == nil {
		return false, NotConnectedError()
	}

	q := `SELECT EXISTS (
	SELECT FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = $1
)`
	var exists bool
	if err := p.pool.QueryRow(ctx, q, tableName).Scan(&exists); err != nil {
		return false, TableExistsCheckError(tableName, err)
	}
	return exists, nil
}

// HasTables checks if the current schema has any tables.
func (p *PgxOperator) HasTables(ctx context.Context) (bool, error) {
	if p.pool == nil {
		return false, NotConnectedError()
	}

	q := `SELECT EXISTS (
	SELECT FROM information_schema.tables
	WHERE table_schema = current_schema()
)`
	var res bool
	if err := p.pool.QueryRow(ctx, q).Scan(&res); err != nil {
		return false, TableCheckError(err)
	}
	return res, nil
}

// DropAllTables drops every table of the current schema.
func (p *PgxOperator) DropAllTables(ctx context.Context) error {
	if p.pool == nil {
		return NotConnectedError()
	}

	rows, err := p.pool.Query(ctx,
		"SELECT tablename FROM pg_tables WHERE schemaname = current_schema()")
	if err != nil {
		return QueryTablesError(err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return ScanTableError(err)
		}
		tables = append(tables, name)
	}
	if err = rows.Err(); err != nil {
		return ScanTableError(err)
	}

	for _, v := range tables {
		q := "DROP TABLE IF EXISTS " + predicate.Quote(v) + " CASCADE"
		if _, err = p.pool.Exec(ctx, q); err != nil {
			return DropTableError(v, err)
		}
	}
	slog.Info("Dropped tables", "count", len(tables))
	return nil
}
