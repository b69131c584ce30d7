// Package db defines the contract for managing the PostgreSQL database
// of the portal.
package db

import (
	"context"

	"github.com/gnames/gnotu/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Operator manages the connection pool. Readers borrow connections from
// Pool() for the duration of a single operation; schema management uses
// the table helpers.
type Operator interface {
	// Connect creates a pool of at most maxConns connections.
	Connect(ctx context.Context, cfg *config.DatabaseConfig, maxConns int) error

	// Close closes the pool.
	Close() error

	// Pool returns the pgx pool, nil before Connect.
	Pool() *pgxpool.Pool

	// TableExists checks if a table exists.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the database has any tables.
	HasTables(ctx context.Context) (bool, error)

	// DropAllTables drops every table, used when the schema is
	// recreated.
	DropAllTables(ctx context.Context) error
}
