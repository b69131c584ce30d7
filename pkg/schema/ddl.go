package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// generateDDL creates a CREATE TABLE statement from struct tags.
// Extra entries are appended as additional column definitions or
// table constraints.
func generateDDL(model any, tableName string, extra ...string) string {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var columns []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		dbTag := field.Tag.Get("db")
		ddlTag := field.Tag.Get("ddl")

		if dbTag != "" && ddlTag != "" {
			columns = append(columns, fmt.Sprintf("    %s %s", dbTag, ddlTag))
		}
	}
	for _, v := range extra {
		columns = append(columns, "    "+v)
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);",
		tableName,
		strings.Join(columns, ",\n"))

	return ddl
}

// OntologyDDL returns the CREATE TABLE statement of a vocabulary table.
func OntologyDDL(vocabulary string) string {
	return generateDDL(OntologyEntry{}, OntologyTable(vocabulary))
}

// Taxon DDL methods
func (t Taxon) TableDDL() string {
	return generateDDL(t, TaxonTable)
}

// IndexDDL indexes the first ranks only: taxa are always narrowed from
// the top of the hierarchy.
func (t Taxon) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_taxon_code ON taxon(code);",
		"CREATE INDEX IF NOT EXISTS idx_taxon_kingdom ON taxon(kingdom_id);",
		"CREATE INDEX IF NOT EXISTS idx_taxon_phylum ON taxon(phylum_id);",
		"CREATE INDEX IF NOT EXISTS idx_taxon_class ON taxon(class_id);",
		"CREATE INDEX IF NOT EXISTS idx_taxon_amplicon ON taxon(amplicon_id);",
	}
}

func (t Taxon) TableName() string {
	return TaxonTable
}

// SampleDDL returns the CREATE TABLE statement of the sample table with
// additional deployment-specific column definitions.
func SampleDDL(columns ...string) string {
	return generateDDL(Sample{}, SampleTable, columns...)
}

// Sample DDL methods
func (s Sample) TableDDL() string {
	return SampleDDL()
}

func (s Sample) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_sample_environment ON sample_context(environment_id);",
	}
}

func (s Sample) TableName() string {
	return SampleTable
}

// Abundance DDL methods
func (a Abundance) TableDDL() string {
	return generateDDL(a, AbundanceTable, "PRIMARY KEY (sample_id, taxon_id)")
}

func (a Abundance) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_sample_otu_taxon ON sample_otu(taxon_id);",
	}
}

func (a Abundance) TableName() string {
	return AbundanceTable
}
