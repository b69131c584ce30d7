// Package schema provides the relational data model of the portal:
// ontology vocabularies, taxa, samples and abundance edges.
// Models carry GORM tags for Postgres AutoMigrate and ddl tags for
// plain CREATE TABLE statements.
package schema

import (
	"strings"

	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
)

const (
	TaxonTable     = "taxon"
	SampleTable    = "sample_context"
	AbundanceTable = "sample_otu"

	// Aliases used to qualify columns in conditions and SQL.
	TaxonAlias     = "t"
	SampleAlias    = "s"
	AbundanceAlias = "a"

	AmpliconVocabulary    = "amplicon"
	EnvironmentVocabulary = "environment"

	// EnvironmentField is the sample column the environment pre-filter
	// tests.
	EnvironmentField = "environment_id"
)

// DDLGenerator defines how Go models generate DDL.
type DDLGenerator interface {
	// TableDDL returns the CREATE TABLE statement for this model.
	TableDDL() string

	// IndexDDL returns CREATE INDEX statements for this model.
	IndexDDL() []string

	// TableName returns the table name for this model.
	TableName() string
}

// OntologyTable returns the table name of a vocabulary.
func OntologyTable(vocabulary string) string {
	return "ontology_" + strings.ToLower(vocabulary)
}

// TaxonCol returns a taxon column reference.
func TaxonCol(name string) predicate.Column {
	return predicate.Col(TaxonAlias, name)
}

// SampleCol returns a sample column reference.
func SampleCol(name string) predicate.Column {
	return predicate.Col(SampleAlias, name)
}

// AbundanceCol returns an abundance edge column reference.
func AbundanceCol(name string) predicate.Column {
	return predicate.Col(AbundanceAlias, name)
}

// TaxonomyVocabularies lists the vocabularies referenced by taxa.
func TaxonomyVocabularies() []string {
	res := []string{AmpliconVocabulary}
	for _, v := range rank.All {
		res = append(res, v.Ontology())
	}
	return res
}

// OntologyEntry is one id/label pair of a controlled vocabulary. Labels
// are unique within a vocabulary. Entries are created on import and
// are read-only afterwards.
type OntologyEntry struct {
	ID    int    `json:"id"    db:"id"    ddl:"INTEGER PRIMARY KEY"`
	Label string `json:"label" db:"label" ddl:"VARCHAR(255) NOT NULL UNIQUE"`
}

// Taxon is an operational taxonomic unit with its lineage.
type Taxon struct {
	// ID is stable within one import run.
	ID int64 `json:"id" db:"id" ddl:"BIGINT PRIMARY KEY" gorm:"primaryKey;autoIncrement:false"`

	// Code is the full semicolon-delimited lineage string.
	Code string `json:"code" db:"code" ddl:"VARCHAR(1024) NOT NULL" gorm:"size:1024;not null;index"`

	// Rank ids reference ontology_<rank>; nil means unclassified.
	KingdomID *int `json:"kingdom_id,omitempty" db:"kingdom_id" ddl:"INTEGER" gorm:"column:kingdom_id;index"`
	PhylumID  *int `json:"phylum_id,omitempty"  db:"phylum_id"  ddl:"INTEGER" gorm:"column:phylum_id;index"`
	ClassID   *int `json:"class_id,omitempty"   db:"class_id"   ddl:"INTEGER" gorm:"column:class_id;index"`
	OrderID   *int `json:"order_id,omitempty"   db:"order_id"   ddl:"INTEGER" gorm:"column:order_id"`
	FamilyID  *int `json:"family_id,omitempty"  db:"family_id"  ddl:"INTEGER" gorm:"column:family_id"`
	GenusID   *int `json:"genus_id,omitempty"   db:"genus_id"   ddl:"INTEGER" gorm:"column:genus_id"`
	SpeciesID *int `json:"species_id,omitempty" db:"species_id" ddl:"INTEGER" gorm:"column:species_id"`

	// AmpliconID references ontology_amplicon.
	AmpliconID *int `json:"amplicon_id,omitempty" db:"amplicon_id" ddl:"INTEGER" gorm:"column:amplicon_id;index"`

	Endemic    bool `json:"endemic"    db:"endemic"    ddl:"BOOLEAN NOT NULL DEFAULT FALSE" gorm:"not null;default:false"`
	Pathogenic bool `json:"pathogenic" db:"pathogenic" ddl:"BOOLEAN NOT NULL DEFAULT FALSE" gorm:"not null;default:false"`
}

// RankID returns the ontology id of the taxon at rank r.
func (t *Taxon) RankID(r rank.Rank) *int {
	if p := t.rankField(r); p != nil {
		return *p
	}
	return nil
}

// SetRankID sets the ontology id of the taxon at rank r.
func (t *Taxon) SetRankID(r rank.Rank, id *int) {
	if p := t.rankField(r); p != nil {
		*p = id
	}
}

func (t *Taxon) rankField(r rank.Rank) **int {
	switch r {
	case rank.Kingdom:
		return &t.KingdomID
	case rank.Phylum:
		return &t.PhylumID
	case rank.Class:
		return &t.ClassID
	case rank.Order:
		return &t.OrderID
	case rank.Family:
		return &t.FamilyID
	case rank.Genus:
		return &t.GenusID
	case rank.Species:
		return &t.SpeciesID
	}
	return nil
}

// Sample is a sampling site with its contextual attributes. The fixed
// columns are always present; deployment-specific attributes from the
// field registry are kept in Attrs by column name. Attrs never holds
// nil values.
type Sample struct {
	ID int64 `json:"id" db:"id" ddl:"BIGINT PRIMARY KEY" gorm:"primaryKey;autoIncrement:false"`

	// X is longitude.
	X float64 `json:"x" db:"x" ddl:"DOUBLE PRECISION" gorm:"column:x"`

	// Y is latitude.
	Y float64 `json:"y" db:"y" ddl:"DOUBLE PRECISION" gorm:"column:y"`

	EnvironmentID *int `json:"environment_id,omitempty" db:"environment_id" ddl:"INTEGER" gorm:"column:environment_id;index"`

	Attrs map[string]any `json:"attrs,omitempty" gorm:"-"`
}

// Abundance is the observation of a taxon in a sample.
type Abundance struct {
	SampleID int64 `json:"sample_id" db:"sample_id" ddl:"BIGINT NOT NULL" gorm:"primaryKey;autoIncrement:false"`
	TaxonID  int64 `json:"taxon_id"  db:"taxon_id"  ddl:"BIGINT NOT NULL" gorm:"primaryKey;autoIncrement:false;index"`

	// Count is a raw observation count, fractional when the source
	// pipeline normalized it.
	Count float64 `json:"count" db:"count" ddl:"DOUBLE PRECISION NOT NULL" gorm:"not null"`

	// ProportionalAbundance is Count divided by the sum of the sample's
	// counts that are >= 1. Counts below 1 are copied unchanged.
	ProportionalAbundance float64 `json:"proportional_abundance" db:"proportional_abundance" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"not null;default:0"`
}

// OTURow is one element of the taxon x abundance x sample cross
// product.
type OTURow struct {
	Taxon     Taxon
	Abundance Abundance
	Sample    Sample
}

// Dataset is a complete set of records of one import run.
type Dataset struct {
	// Ontologies maps vocabulary names to their entries.
	Ontologies map[string][]OntologyEntry
	Taxa       []Taxon
	Samples    []Sample
	Abundances []Abundance
}
