package ioschema

import (
	"context"
	"testing"

	"github.com/gnames/gnotu/internal/iodb"
	"github.com/gnames/gnotu/internal/iotesting"
	"github.com/gnames/gnotu/pkg/lifecycle"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	reg := iotesting.Registry(t)
	m := NewManager(iodb.NewPgxOperator(), reg).(*manager)
	stmts := m.statements()

	assert.Contains(t, stmts, schema.OntologyDDL("land_type"))
	assert.Contains(t, stmts, schema.OntologyDDL(schema.AmpliconVocabulary))
	assert.Contains(t, stmts,
		`ALTER TABLE "sample_context" ADD COLUMN IF NOT EXISTS "elev" DOUBLE PRECISION`)
	assert.Contains(t, stmts,
		`ALTER TABLE "sample_context" ADD COLUMN IF NOT EXISTS "collection_date" DATE`)
}

func TestCollationColumns(t *testing.T) {
	cols := collationColumns(iotesting.Registry(t))
	assert.Contains(t, cols, columnDef{schema.OntologyTable("land_type"), "label", 255})
	assert.Equal(t, columnDef{schema.TaxonTable, "code", 1024}, cols[len(cols)-1])

	assert.Equal(t,
		`ALTER TABLE "taxon" ALTER COLUMN "code" TYPE VARCHAR(1024) COLLATE "C"`,
		formatCollationSQL("taxon", "code", 1024))
}

func TestNotConnected(t *testing.T) {
	var mgr lifecycle.SchemaManager = NewManager(iodb.NewPgxOperator(), iotesting.Registry(t))
	cfg := iotesting.GetTestConfig(t)
	err := mgr.Create(context.Background(), cfg)
	assert.Error(t, err)
	err = mgr.Migrate(context.Background(), cfg)
	assert.Error(t, err)
}

// TestCreate needs PostgreSQL with a gnotu_test database.
func TestCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	cfg := iotesting.GetTestConfig(t)

	op := iodb.NewPgxOperator()
	require.NoError(t, op.Connect(ctx, &cfg.Database, cfg.JobsNumber))
	defer op.Close()
	require.NoError(t, op.DropAllTables(ctx))

	mgr := NewManager(op, iotesting.Registry(t))
	require.NoError(t, mgr.Create(ctx, cfg))
	// second run only adds what is missing
	require.NoError(t, mgr.Migrate(ctx, cfg))

	for _, tbl := range []string{
		schema.TaxonTable, schema.SampleTable, schema.AbundanceTable,
		schema.OntologyTable("land_type"),
	} {
		ok, err := op.TableExists(ctx, tbl)
		require.NoError(t, err)
		assert.True(t, ok, tbl)
	}
}
