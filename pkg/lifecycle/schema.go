// Package lifecycle declares the stages a portal database goes through
// after import: schema management and optimization.
package lifecycle

import (
	"context"

	"github.com/gnames/gnotu/pkg/config"
)

// SchemaManager creates and migrates the PostgreSQL schema.
// Both operations are idempotent.
type SchemaManager interface {
	// Create creates every table and applies "C" collation to label
	// columns. Existing tables are kept; dropping them is up to the
	// caller.
	Create(ctx context.Context, cfg *config.Config) error

	// Migrate updates the schema, adding columns for fields that were
	// added to the registry.
	Migrate(ctx context.Context, cfg *config.Config) error
}
