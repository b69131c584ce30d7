package iomem

import (
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/schema"
)

func intVal(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func taxonValue(t *schema.Taxon, name string) any {
	switch name {
	case "id":
		return t.ID
	case "code":
		return t.Code
	case "kingdom_id":
		return intVal(t.KingdomID)
	case "phylum_id":
		return intVal(t.PhylumID)
	case "class_id":
		return intVal(t.ClassID)
	case "order_id":
		return intVal(t.OrderID)
	case "family_id":
		return intVal(t.FamilyID)
	case "genus_id":
		return intVal(t.GenusID)
	case "species_id":
		return intVal(t.SpeciesID)
	case "amplicon_id":
		return intVal(t.AmpliconID)
	case "endemic":
		return t.Endemic
	case "pathogenic":
		return t.Pathogenic
	}
	return nil
}

func sampleValue(s *schema.Sample, name string) any {
	switch name {
	case "id":
		return s.ID
	case "x":
		return s.X
	case "y":
		return s.Y
	case schema.EnvironmentField:
		return intVal(s.EnvironmentID)
	}
	if v, ok := s.Attrs[name]; ok {
		return v
	}
	return nil
}

func abundanceValue(a *schema.Abundance, name string) any {
	switch name {
	case "sample_id":
		return a.SampleID
	case "taxon_id":
		return a.TaxonID
	case "count":
		return a.Count
	case "proportional_abundance":
		return a.ProportionalAbundance
	}
	return nil
}

// row exposes records to predicate evaluation by table alias. Missing
// records read as NULL.
type row struct {
	taxon     *schema.Taxon
	sample    *schema.Sample
	abundance *schema.Abundance
}

func (r row) Value(c predicate.Column) any {
	switch c.Table {
	case schema.TaxonAlias:
		if r.taxon != nil {
			return taxonValue(r.taxon, c.Name)
		}
	case schema.SampleAlias:
		if r.sample != nil {
			return sampleValue(r.sample, c.Name)
		}
	case schema.AbundanceAlias:
		if r.abundance != nil {
			return abundanceValue(r.abundance, c.Name)
		}
	}
	return nil
}
