package iotesting

import (
	"context"
	"iter"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/gnotu/internal/iomem"
	"github.com/gnames/gnotu/internal/iosql"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
	"github.com/stretchr/testify/require"
)

// FieldsYAML declares the contextual fields of the fixture samples.
const FieldsYAML = `
fields:
  - name: elev
    kind: float
    units: m
    display_name: Elevation
  - name: soil_type
    kind: string
  - name: land_type_id
    kind: ontology
    ontology: land_type
  - name: collection_date
    kind: date
`

// Ontology ids of the fixture.
const (
	Amplicon16S = 1
	Amplicon18S = 2

	Archaea   = 1
	Bacteria  = 2
	Eukaryota = 3

	Actinobacteria = 1
	Firmicutes     = 2
	Proteobacteria = 3
	Ascomycota     = 4
	Euryarchaeota  = 5

	Soil   = 1
	Marine = 2

	Cropland  = 1
	Forest    = 2
	Grassland = 3
)

// Registry returns the field registry of the fixture.
func Registry(t testing.TB) *fields.Registry {
	t.Helper()
	reg, err := fields.Parse([]byte(FieldsYAML))
	require.NoError(t, err)
	return reg
}

func ip(i int) *int {
	return &i
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func entries(labels ...string) []schema.OntologyEntry {
	res := make([]schema.OntologyEntry, len(labels))
	for i, v := range labels {
		res[i] = schema.OntologyEntry{ID: i + 1, Label: v}
	}
	return res
}

func taxon(id int64, code string, amplicon int, ids ...int) schema.Taxon {
	res := schema.Taxon{ID: id, Code: code, AmpliconID: ip(amplicon)}
	for i, v := range ids {
		res.SetRankID(rank.Rank(i), ip(v))
	}
	return res
}

// Dataset returns the fixture data. Edges carry raw counts only,
// proportions are computed by the stores.
//
//	taxon 1  Bacteria Firmicutes Bacilli ... Bacillus subtilis   16S
//	taxon 2  Bacteria Proteobacteria Gammaproteobacteria ...      16S
//	taxon 3  Bacteria Actinobacteria Actinomycetia                16S
//	taxon 4  Archaea Euryarchaeota                                16S
//	taxon 5  Eukaryota Ascomycota Sordariomycetes                 18S
//	taxon 6  Bacteria (unclassified below kingdom)                16S
func Dataset() *schema.Dataset {
	return &schema.Dataset{
		Ontologies: map[string][]schema.OntologyEntry{
			"amplicon":    entries("16S", "18S"),
			"kingdom":     entries("Archaea", "Bacteria", "Eukaryota"),
			"phylum":      entries("Actinobacteria", "Firmicutes", "Proteobacteria", "Ascomycota", "Euryarchaeota"),
			"class":       entries("Bacilli", "Gammaproteobacteria", "Actinomycetia", "Sordariomycetes"),
			"order":       entries("Bacillales", "Enterobacterales"),
			"family":      entries("Bacillaceae", "Enterobacteriaceae"),
			"genus":       entries("Bacillus", "Escherichia"),
			"species":     entries("Bacillus subtilis"),
			"environment": entries("Soil", "Marine"),
			"land_type":   entries("Cropland", "Forest", "Grassland"),
		},
		Taxa: []schema.Taxon{
			taxon(1, "k__Bacteria;p__Firmicutes;c__Bacilli;o__Bacillales;f__Bacillaceae;g__Bacillus;s__subtilis",
				Amplicon16S, Bacteria, Firmicutes, 1, 1, 1, 1, 1),
			taxon(2, "k__Bacteria;p__Proteobacteria;c__Gammaproteobacteria;o__Enterobacterales;f__Enterobacteriaceae;g__Escherichia",
				Amplicon16S, Bacteria, Proteobacteria, 2, 2, 2, 2),
			taxon(3, "k__Bacteria;p__Actinobacteria;c__Actinomycetia",
				Amplicon16S, Bacteria, Actinobacteria, 3),
			taxon(4, "k__Archaea;p__Euryarchaeota",
				Amplicon16S, Archaea, Euryarchaeota),
			taxon(5, "k__Eukaryota;p__Ascomycota;c__Sordariomycetes",
				Amplicon18S, Eukaryota, Ascomycota, 4),
			taxon(6, "k__Bacteria",
				Amplicon16S, Bacteria),
		},
		Samples: []schema.Sample{
			{ID: 101, X: 151.2, Y: -33.9, EnvironmentID: ip(Soil), Attrs: map[string]any{
				"elev": 50.0, "soil_type": "Sandy loam", "land_type_id": Grassland,
				"collection_date": day("2019-03-01"),
			}},
			{ID: 102, X: 144.9, Y: -37.8, EnvironmentID: ip(Soil), Attrs: map[string]any{
				"elev": 100.0, "soil_type": "Red clay", "land_type_id": Cropland,
				"collection_date": day("2020-06-15"),
			}},
			{ID: 103, X: 153.0, Y: -27.5, EnvironmentID: ip(Soil), Attrs: map[string]any{
				"elev": 250.5, "soil_type": "Clay loam", "land_type_id": Forest,
				"collection_date": day("2020-11-30"),
			}},
			{ID: 104, X: 115.9, Y: -31.9, EnvironmentID: ip(Soil), Attrs: map[string]any{
				"elev": 500.0, "soil_type": "Silt", "land_type_id": Grassland,
				"collection_date": day("2021-01-20"),
			}},
			{ID: 105, X: 147.3, Y: -42.9, EnvironmentID: ip(Marine), Attrs: map[string]any{
				"elev": 750.0, "collection_date": day("2021-05-05"),
			}},
			{ID: 106, X: 138.6, Y: -34.9, Attrs: map[string]any{
				"soil_type": "CLAY", "land_type_id": Grassland,
			}},
		},
		Abundances: []schema.Abundance{
			{SampleID: 101, TaxonID: 1, Count: 30},
			{SampleID: 101, TaxonID: 2, Count: 10},
			{SampleID: 101, TaxonID: 4, Count: 60},
			{SampleID: 102, TaxonID: 1, Count: 5},
			{SampleID: 102, TaxonID: 3, Count: 5},
			{SampleID: 102, TaxonID: 6, Count: 0.5},
			{SampleID: 103, TaxonID: 2, Count: 12},
			{SampleID: 103, TaxonID: 5, Count: 8},
			{SampleID: 104, TaxonID: 4, Count: 1},
			{SampleID: 104, TaxonID: 6, Count: 3},
			{SampleID: 105, TaxonID: 2, Count: 0.25},
			{SampleID: 105, TaxonID: 5, Count: 20},
			{SampleID: 106, TaxonID: 3, Count: 7},
		},
	}
}

// MemStore returns an in-memory store with the fixture loaded.
func MemStore(t testing.TB) *iomem.Store {
	t.Helper()
	ctx := context.Background()
	res := iomem.New()
	require.NoError(t, res.Load(ctx, Dataset()))
	require.NoError(t, res.UpdateProportions(ctx))
	return res
}

// SQLiteStore returns an SQLite store in a temporary directory with the
// fixture loaded.
func SQLiteStore(t testing.TB) *iosql.Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gnotu.db")
	res, err := iosql.OpenSQLite(ctx, path, Registry(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	require.NoError(t, res.CreateSchema(ctx))
	require.NoError(t, res.Load(ctx, Dataset()))
	require.NoError(t, res.UpdateProportions(ctx))
	return res
}

// Backends returns the fixture loaded into every store implementation
// that does not need a server.
func Backends(t testing.TB) map[string]store.Reader {
	return map[string]store.Reader{
		"memory": MemStore(t),
		"sqlite": SQLiteStore(t),
	}
}

// CountingReader counts calls that reach the wrapped store.
type CountingReader struct {
	store.Reader
	calls atomic.Int64
}

// NewCountingReader wraps r.
func NewCountingReader(r store.Reader) *CountingReader {
	return &CountingReader{Reader: r}
}

// Calls returns the number of store calls so far.
func (c *CountingReader) Calls() int {
	return int(c.calls.Load())
}

func (c *CountingReader) TaxaExist(ctx context.Context, cond predicate.Cond) (bool, error) {
	c.calls.Add(1)
	return c.Reader.TaxaExist(ctx, cond)
}

func (c *CountingReader) RankValues(
	ctx context.Context, r rank.Rank, cond predicate.Cond,
) ([]schema.OntologyEntry, error) {
	c.calls.Add(1)
	return c.Reader.RankValues(ctx, r, cond)
}

func (c *CountingReader) OntologyValues(
	ctx context.Context, vocabulary string,
) ([]schema.OntologyEntry, error) {
	c.calls.Add(1)
	return c.Reader.OntologyValues(ctx, vocabulary)
}

func (c *CountingReader) SampleIDs(ctx context.Context, f store.Filter) ([]int64, error) {
	c.calls.Add(1)
	return c.Reader.SampleIDs(ctx, f)
}

func (c *CountingReader) SampleIDsEnv(
	ctx context.Context, f store.Filter,
) ([]store.SampleEnv, error) {
	c.calls.Add(1)
	return c.Reader.SampleIDsEnv(ctx, f)
}

func (c *CountingReader) Samples(ctx context.Context, f store.Filter) ([]schema.Sample, error) {
	c.calls.Add(1)
	return c.Reader.Samples(ctx, f)
}

func (c *CountingReader) SampleHeaders(
	ctx context.Context, f store.Filter, p store.Projection,
) ([][]any, error) {
	c.calls.Add(1)
	return c.Reader.SampleHeaders(ctx, f, p)
}

func (c *CountingReader) SampleOTUs(
	ctx context.Context, f store.Filter,
) iter.Seq2[schema.OTURow, error] {
	c.calls.Add(1)
	return c.Reader.SampleOTUs(ctx, f)
}

func (c *CountingReader) FieldValues(
	ctx context.Context, col store.HeaderColumn,
) ([]any, error) {
	c.calls.Add(1)
	return c.Reader.FieldValues(ctx, col)
}

func (c *CountingReader) SampleOTUsExist(ctx context.Context, f store.Filter) (bool, error) {
	c.calls.Add(1)
	return c.Reader.SampleOTUsExist(ctx, f)
}

func (c *CountingReader) SearchTaxa(
	ctx context.Context, text string, limit int,
) ([]schema.Taxon, error) {
	c.calls.Add(1)
	return c.Reader.SearchTaxa(ctx, text, limit)
}
