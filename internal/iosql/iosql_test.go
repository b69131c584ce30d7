package iosql_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gnames/gnotu/internal/iotesting"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	kingdom = schema.TaxonCol(rank.Kingdom.Column())
	env     = schema.SampleCol(schema.EnvironmentField)
	elev    = schema.SampleCol("elev")
	date    = schema.SampleCol("collection_date")
)

func TestTaxa(t *testing.T) {
	ctx := context.Background()
	for name, st := range iotesting.Backends(t) {
		ok, err := st.TaxaExist(ctx, predicate.Eq(kingdom, iotesting.Bacteria))
		require.NoError(t, err, name)
		assert.True(t, ok, name)

		ok, err = st.TaxaExist(ctx, predicate.Eq(kingdom, 99))
		require.NoError(t, err, name)
		assert.False(t, ok, name)

		phyla, err := st.RankValues(ctx, rank.Phylum, predicate.Eq(kingdom, iotesting.Bacteria))
		require.NoError(t, err, name)
		assert.Equal(t, []schema.OntologyEntry{
			{ID: iotesting.Actinobacteria, Label: "Actinobacteria"},
			{ID: iotesting.Firmicutes, Label: "Firmicutes"},
			{ID: iotesting.Proteobacteria, Label: "Proteobacteria"},
		}, phyla, name)

		kingdoms, err := st.RankValues(ctx, rank.Kingdom,
			predicate.Eq(schema.TaxonCol("amplicon_id"), 99))
		require.NoError(t, err, name)
		assert.Empty(t, kingdoms, name)

		taxa, err := st.SearchTaxa(ctx, "BACILL", 0)
		require.NoError(t, err, name)
		require.Len(t, taxa, 1, name)
		assert.Equal(t, int64(1), taxa[0].ID, name)
		assert.Equal(t, iotesting.Firmicutes, *taxa[0].PhylumID, name)

		taxa, err = st.SearchTaxa(ctx, "k__bacteria", 2)
		require.NoError(t, err, name)
		require.Len(t, taxa, 2, name)
		assert.Equal(t, int64(6), taxa[0].ID, name)
		assert.Equal(t, int64(3), taxa[1].ID, name)
		assert.Nil(t, taxa[0].PhylumID, name)
	}
}

func TestSearchTaxaUnicode(t *testing.T) {
	ctx := context.Background()
	amplicon, eukaryota := iotesting.Amplicon18S, iotesting.Eukaryota
	tx := schema.Taxon{ID: 7, Code: "k__Eukaryota;g__Ästuarium", AmpliconID: &amplicon}
	tx.SetRankID(rank.Kingdom, &eukaryota)
	ds := &schema.Dataset{Taxa: []schema.Taxon{tx}}

	backends := map[string]interface {
		store.Reader
		store.Loader
	}{
		"memory": iotesting.MemStore(t),
		"sqlite": iotesting.SQLiteStore(t),
	}
	for name, st := range backends {
		require.NoError(t, st.Load(ctx, ds), name)
		for _, text := range []string{"ästuar", "ÄSTUAR"} {
			taxa, err := st.SearchTaxa(ctx, text, 0)
			require.NoError(t, err, name)
			require.Len(t, taxa, 1, name)
			assert.Equal(t, int64(7), taxa[0].ID, name)
		}
	}
}

func TestSource(t *testing.T) {
	st := iotesting.SQLiteStore(t)
	assert.True(t, strings.HasPrefix(st.Source(), "sqlite:/"))
	assert.True(t, strings.HasSuffix(st.Source(), "gnotu.db"))
	assert.NotEqual(t, iotesting.MemStore(t).Source(), iotesting.MemStore(t).Source())
}

func TestOntologyValues(t *testing.T) {
	ctx := context.Background()
	for name, st := range iotesting.Backends(t) {
		res, err := st.OntologyValues(ctx, "land_type")
		require.NoError(t, err, name)
		assert.Equal(t, []schema.OntologyEntry{
			{ID: 1, Label: "Cropland"}, {ID: 2, Label: "Forest"}, {ID: 3, Label: "Grassland"},
		}, res, name)

		_, err = st.OntologyValues(ctx, "nope")
		assert.Error(t, err, name)
	}
}

func TestSampleIDs(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		msg string
		f   store.Filter
		res []int64
	}{
		{"everything", store.Filter{}, []int64{101, 102, 103, 104, 105, 106}},
		{"taxonomy", store.Filter{Taxa: predicate.Eq(kingdom, iotesting.Eukaryota)},
			[]int64{103, 105}},
		{"taxonomy and environment", store.Filter{
			Taxa:    predicate.Eq(kingdom, iotesting.Eukaryota),
			Samples: predicate.Eq(env, iotesting.Soil),
		}, []int64{103}},
		{"float range", store.Filter{Samples: predicate.Between(elev, 100.0, 500.0)},
			[]int64{102, 103, 104}},
		{"date range", store.Filter{Samples: predicate.Between(date,
			time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC))},
			[]int64{102, 103}},
		{"substring", store.Filter{Samples: predicate.Contains(schema.SampleCol("soil_type"), "clay")},
			[]int64{102, 103, 106}},
		{"negated ontology skips null", store.Filter{
			Samples: predicate.Not(predicate.Eq(schema.SampleCol("land_type_id"), iotesting.Grassland)),
		}, []int64{102, 103}},
		{"nothing", store.Filter{Taxa: predicate.Eq(kingdom, 99)}, nil},
	}

	for name, st := range iotesting.Backends(t) {
		for _, v := range tests {
			res, err := st.SampleIDs(ctx, v.f)
			require.NoError(t, err, name+": "+v.msg)
			assert.Equal(t, v.res, res, name+": "+v.msg)
		}
	}
}

func TestSamplesMatchAcrossBackends(t *testing.T) {
	ctx := context.Background()
	bb := iotesting.Backends(t)
	f := store.Filter{Taxa: predicate.Eq(kingdom, iotesting.Bacteria)}

	mem, err := bb["memory"].Samples(ctx, f)
	require.NoError(t, err)
	sq, err := bb["sqlite"].Samples(ctx, f)
	require.NoError(t, err)
	require.Len(t, mem, 6)
	assert.Equal(t, mem, sq)
	assert.Equal(t, "Red clay", sq[1].Attrs["soil_type"])
	assert.Equal(t, time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), sq[1].Attrs["collection_date"])

	envs, err := bb["sqlite"].SampleIDsEnv(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, envs, 6)
	assert.Equal(t, iotesting.Marine, *envs[4].EnvironmentID)
	assert.Nil(t, envs[5].EnvironmentID)
}

func TestSampleHeaders(t *testing.T) {
	ctx := context.Background()
	p := store.Projection{
		Columns: []store.HeaderColumn{
			{Name: "id"},
			{Name: schema.EnvironmentField, Vocabulary: schema.EnvironmentVocabulary},
			{Name: "elev"},
		},
		SortColumn: 2,
		SortDesc:   true,
	}
	for name, st := range iotesting.Backends(t) {
		res, err := st.SampleHeaders(ctx, store.Filter{}, p)
		require.NoError(t, err, name)
		assert.Equal(t, [][]any{
			{int64(105), "Marine", 750.0},
			{int64(104), "Soil", 500.0},
			{int64(103), "Soil", 250.5},
			{int64(102), "Soil", 100.0},
			{int64(101), "Soil", 50.0},
			{int64(106), nil, nil},
		}, res, name)

		p2 := p
		p2.SortColumn = 1
		p2.SortDesc = false
		res, err = st.SampleHeaders(ctx, store.Filter{}, p2)
		require.NoError(t, err, name)
		ids := make([]any, len(res))
		for i := range res {
			ids[i] = res[i][0]
		}
		assert.Equal(t, []any{int64(105), int64(101), int64(102), int64(103),
			int64(104), int64(106)}, ids, name)

		p2.SortColumn = 3
		_, err = st.SampleHeaders(ctx, store.Filter{}, p2)
		assert.Error(t, err, name)
	}
}

func TestSampleOTUs(t *testing.T) {
	ctx := context.Background()
	f := store.Filter{
		Taxa:    predicate.Eq(kingdom, iotesting.Bacteria),
		Samples: predicate.Eq(env, iotesting.Soil),
	}
	type pair struct{ sample, taxon int64 }
	want := []pair{{101, 1}, {101, 2}, {102, 1}, {102, 3}, {102, 6}, {103, 2}, {104, 6}}

	for name, st := range iotesting.Backends(t) {
		var got []pair
		for row, err := range st.SampleOTUs(ctx, f) {
			require.NoError(t, err, name)
			assert.Equal(t, row.Abundance.SampleID, row.Sample.ID, name)
			assert.Equal(t, row.Abundance.TaxonID, row.Taxon.ID, name)
			assert.Equal(t, iotesting.Bacteria, *row.Taxon.KingdomID, name)
			got = append(got, pair{row.Sample.ID, row.Taxon.ID})
			if row.Sample.ID == 101 && row.Taxon.ID == 1 {
				assert.InDelta(t, 0.3, row.Abundance.ProportionalAbundance, 1e-9, name)
			}
			if row.Taxon.ID == 6 && row.Sample.ID == 102 {
				assert.InDelta(t, 0.5, row.Abundance.ProportionalAbundance, 1e-9, name)
			}
		}
		assert.Equal(t, want, got, name)

		// Stopping early releases the connection for the next query.
		n := 0
		for range st.SampleOTUs(ctx, f) {
			n++
			if n == 2 {
				break
			}
		}
		assert.Equal(t, 2, n, name)
		ok, err := st.SampleOTUsExist(ctx, f)
		require.NoError(t, err, name)
		assert.True(t, ok, name)
	}
}

// TestSampleOTUsEmpty streams nothing when no sample qualifies.
func TestSampleOTUsEmpty(t *testing.T) {
	ctx := context.Background()
	f := store.Filter{
		Taxa:    predicate.Eq(kingdom, iotesting.Eukaryota),
		Samples: predicate.Between(elev, 0.0, 60.0),
	}
	for name, st := range iotesting.Backends(t) {
		n := 0
		for _, err := range st.SampleOTUs(ctx, f) {
			require.NoError(t, err, name)
			n++
		}
		assert.Zero(t, n, name)

		ok, err := st.SampleOTUsExist(ctx, f)
		require.NoError(t, err, name)
		assert.False(t, ok, name)
	}
}

func TestProportions(t *testing.T) {
	ctx := context.Background()
	st := iotesting.SQLiteStore(t)
	sums := make(map[int64]float64)
	for row, err := range st.SampleOTUs(ctx, store.Filter{}) {
		require.NoError(t, err)
		a := row.Abundance
		if a.Count >= 1 {
			sums[a.SampleID] += a.ProportionalAbundance
		} else {
			assert.Equal(t, a.Count, a.ProportionalAbundance)
		}
	}
	require.Len(t, sums, 6)
	for id, v := range sums {
		assert.InDelta(t, 1.0, v, 1e-9, id)
	}
}

func TestSchema(t *testing.T) {
	ctx := context.Background()
	st := iotesting.SQLiteStore(t)

	// CreateSchema is idempotent.
	require.NoError(t, st.CreateSchema(ctx))

	cols, err := st.ColumnNames(ctx, schema.SampleTable)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"id", "x", "y", "environment_id",
		"elev", "soil_type", "land_type_id", "collection_date",
	}, cols)
	assert.NoError(t, st.CheckColumns(ctx))
}
