package ioschema

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/errcode"
)

// NotConnectedError is returned when the schema is touched before the
// operator connected to PostgreSQL.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  "Schema operation attempted without database connection",
		Err:  fmt.Errorf("not connected to database"),
	}
}

// GORMConnectionError wraps failures to open GORM over the pool.
func GORMConnectionError(err error) error {
	msg := `Cannot connect to database with GORM

<em>How to fix:</em>
  1. Ensure the database is reachable: <em>pg_isready</em>
  2. Check <em>database</em> settings in <em>~/.config/gnotu/config.yaml</em>`

	return &gn.Error{
		Code: errcode.SchemaGORMConnectionError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to connect with GORM: %w", err),
	}
}

// CreateSchemaError wraps schema creation failures.
func CreateSchemaError(err error) error {
	msg := `Cannot create database schema

<em>Possible causes:</em>
  - Insufficient database permissions
  - A field in <em>fields.yaml</em> clashes with an existing column

<em>How to fix:</em>
  1. Check database user has CREATE permissions
  2. Check database logs for details`

	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to create schema: %w", err),
	}
}

// MigrateSchemaError wraps schema migration failures.
func MigrateSchemaError(err error) error {
	msg := `Cannot migrate database schema

<em>How to fix:</em>
  1. Check database user has ALTER permissions
  2. Recreate the schema: <em>gnotu create</em>`

	return &gn.Error{
		Code: errcode.SchemaMigrateError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to migrate schema: %w", err),
	}
}

// CollationError wraps failures to set collation on a column.
func CollationError(table, column string, err error) error {
	msg := `Cannot set collation on <em>%s.%s</em>

<em>How to fix:</em>
  1. Ensure table was created successfully
  2. Check database user has ALTER permissions`

	return &gn.Error{
		Code: errcode.SchemaCollationError,
		Msg:  msg,
		Vars: []any{table, column},
		Err: fmt.Errorf(
			"failed to set collation on %s.%s: %w",
			table, column, err),
	}
}

// ColumnsError is returned when the sample table does not carry every
// registered field after migration.
func ColumnsError(err error) error {
	msg := `Sample table does not match <em>fields.yaml</em>

Run <em>gnotu create --migrate</em> after changing the field registry`

	return &gn.Error{
		Code: errcode.SchemaColumnsError,
		Msg:  msg,
		Err:  fmt.Errorf("sample columns check: %w", err),
	}
}
