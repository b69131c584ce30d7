// Package ioschema implements SchemaManager interface for the
// PostgreSQL store. Fixed tables come from GORM AutoMigrate, vocabulary
// tables and registry columns from generated DDL.
package ioschema

import (
	"context"
	"log/slog"

	"github.com/gnames/gnotu/internal/iosql"
	"github.com/gnames/gnotu/pkg/config"
	"github.com/gnames/gnotu/pkg/db"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/lifecycle"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type manager struct {
	operator db.Operator
	reg      *fields.Registry
}

// NewManager creates a new SchemaManager. The registry decides which
// vocabulary tables and extra sample columns exist.
func NewManager(op db.Operator, reg *fields.Registry) lifecycle.SchemaManager {
	return &manager{operator: op, reg: reg}
}

// Create creates the schema and sets "C" collation on label columns,
// so labels sort byte-wise the same way in every store.
func (m *manager) Create(ctx context.Context, cfg *config.Config) error {
	if err := m.migrate(ctx, CreateSchemaError); err != nil {
		return err
	}
	if err := m.setCollation(ctx); err != nil {
		return err
	}
	slog.Info("Schema is created", "database", cfg.Database.Database)
	return nil
}

// Migrate brings an existing schema up to date. Columns of newly
// registered fields are added, nothing is dropped.
func (m *manager) Migrate(ctx context.Context, cfg *config.Config) error {
	if err := m.migrate(ctx, MigrateSchemaError); err != nil {
		return err
	}
	slog.Info("Schema is migrated", "database", cfg.Database.Database)
	return nil
}

func (m *manager) migrate(
	ctx context.Context,
	wrap func(error) error,
) error {
	pool := m.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		return GORMConnectionError(err)
	}

	if err = schema.Migrate(gormDB.WithContext(ctx)); err != nil {
		return wrap(err)
	}

	for _, q := range m.statements() {
		if _, err = pool.Exec(ctx, q); err != nil {
			return wrap(err)
		}
	}

	return m.checkColumns(ctx)
}

// statements returns DDL that AutoMigrate cannot derive from the fixed
// models.
func (m *manager) statements() []string {
	var res []string
	for _, v := range iosql.Vocabularies(m.reg) {
		res = append(res, schema.OntologyDDL(v))
	}
	for _, v := range iosql.ExtraColumns(m.reg) {
		res = append(res, addColumnSQL(schema.SampleTable, v))
	}
	return res
}

func (m *manager) checkColumns(ctx context.Context) error {
	rows, err := m.operator.Pool().Query(ctx, `
SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`,
		schema.SampleTable)
	if err != nil {
		return ColumnsError(err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return ColumnsError(err)
		}
		cols = append(cols, name)
	}
	if err = rows.Err(); err != nil {
		return ColumnsError(err)
	}
	if err = m.reg.CheckColumns(cols); err != nil {
		return ColumnsError(err)
	}
	return nil
}

func (m *manager) setCollation(ctx context.Context) error {
	pool := m.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}

	for _, col := range collationColumns(m.reg) {
		q := formatCollationSQL(col.table, col.column, col.varchar)
		if _, err := pool.Exec(ctx, q); err != nil {
			return CollationError(col.table, col.column, err)
		}
	}
	return nil
}
