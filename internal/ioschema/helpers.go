package ioschema

import (
	"fmt"

	"github.com/gnames/gnotu/internal/iosql"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/schema"
)

type columnDef struct {
	table, column string
	varchar       int
}

// collationColumns lists text columns that are sorted or searched:
// every vocabulary label and the taxon lineage code.
func collationColumns(reg *fields.Registry) []columnDef {
	var res []columnDef
	for _, v := range iosql.Vocabularies(reg) {
		res = append(res, columnDef{schema.OntologyTable(v), "label", 255})
	}
	return append(res, columnDef{schema.TaxonTable, "code", 1024})
}

func formatCollationSQL(table, column string, varchar int) string {
	return fmt.Sprintf(
		`ALTER TABLE %s ALTER COLUMN %s TYPE VARCHAR(%d) COLLATE "C"`,
		predicate.Quote(table), predicate.Quote(column), varchar,
	)
}

// addColumnSQL takes a quoted column definition such as `"elev" DOUBLE
// PRECISION`.
func addColumnSQL(table, def string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s",
		predicate.Quote(table), def)
}
