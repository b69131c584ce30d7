package schema_test

import (
	"testing"

	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/stretchr/testify/assert"
)

// TestTaxonDDL tests CREATE TABLE generation for taxa.
func TestTaxonDDL(t *testing.T) {
	var tx schema.Taxon
	ddl := tx.TableDDL()

	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS taxon")
	assert.Contains(t, ddl, "id BIGINT PRIMARY KEY")
	assert.Contains(t, ddl, "kingdom_id INTEGER")
	assert.Contains(t, ddl, "species_id INTEGER")
	assert.Contains(t, ddl, "endemic BOOLEAN NOT NULL DEFAULT FALSE")
	assert.Equal(t, "taxon", tx.TableName())
	assert.Len(t, tx.IndexDDL(), 5)
}

// TestSampleDDL tests that registry columns are added to the sample
// table.
func TestSampleDDL(t *testing.T) {
	ddl := schema.SampleDDL(`"elev" DOUBLE PRECISION`, `"soil_type" TEXT`)

	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS sample_context")
	assert.Contains(t, ddl, "environment_id INTEGER")
	assert.Contains(t, ddl, `"elev" DOUBLE PRECISION`)
	assert.Contains(t, ddl, `"soil_type" TEXT`)
	assert.NotContains(t, ddl, "attrs")
}

// TestAbundanceDDL tests the composite primary key.
func TestAbundanceDDL(t *testing.T) {
	ddl := schema.Abundance{}.TableDDL()
	assert.Contains(t, ddl, "PRIMARY KEY (sample_id, taxon_id)")
	assert.Contains(t, ddl, "proportional_abundance DOUBLE PRECISION")
}

func TestOntologyDDL(t *testing.T) {
	ddl := schema.OntologyDDL("Land_Use")
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS ontology_land_use")
	assert.Contains(t, ddl, "label VARCHAR(255) NOT NULL UNIQUE")
}

func TestRankID(t *testing.T) {
	var tx schema.Taxon
	id := 4
	tx.SetRankID(rank.Genus, &id)
	assert.Equal(t, &id, tx.GenusID)
	assert.Equal(t, 4, *tx.RankID(rank.Genus))
	assert.Nil(t, tx.RankID(rank.Kingdom))
	assert.Nil(t, tx.RankID(rank.Rank(42)))
}

func TestTaxonomyVocabularies(t *testing.T) {
	vv := schema.TaxonomyVocabularies()
	assert.Equal(t, []string{
		"amplicon", "kingdom", "phylum", "class", "order", "family", "genus",
		"species",
	}, vv)
}

func TestColumns(t *testing.T) {
	assert.Equal(t, "t.kingdom_id", schema.TaxonCol("kingdom_id").String())
	assert.Equal(t, "s.elev", schema.SampleCol("elev").String())
	assert.Equal(t, "a.count", schema.AbundanceCol("count").String())
}
