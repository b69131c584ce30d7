package taxonomy_test

import (
	"context"
	"testing"

	"github.com/gnames/gnotu/internal/iocache"
	"github.com/gnames/gnotu/internal/iomem"
	"github.com/gnames/gnotu/internal/iotesting"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func is(v int) *predicate.OpValue {
	return predicate.NewOpValue("is", v)
}

func state(vv ...*predicate.OpValue) taxonomy.State {
	var res taxonomy.State
	copy(res[:], vv)
	return res
}

func labels(ee []schema.OntologyEntry) []string {
	res := make([]string, len(ee))
	for i, v := range ee {
		res[i] = v.Label
	}
	return res
}

func TestPossibilities(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		msg      string
		amplicon *predicate.OpValue
		state    taxonomy.State
		target   string
		labels   []string
	}{
		{"nothing selected", nil, state(), "kingdom",
			[]string{"Archaea", "Bacteria", "Eukaryota"}},
		{"bacteria", nil, state(is(iotesting.Bacteria)), "phylum",
			[]string{"Actinobacteria", "Firmicutes", "Proteobacteria"}},
		{"not bacteria", nil,
			state(predicate.NewOpValue("isnot", iotesting.Bacteria)), "phylum",
			[]string{"Ascomycota", "Euryarchaeota"}},
		{"amplicon restricts kingdoms", is(iotesting.Amplicon18S), state(), "kingdom",
			[]string{"Eukaryota"}},
		{"amplicon without taxa", is(99), state(), "kingdom", []string{}},
		{"amplicon without taxa and a kingdom", is(99),
			state(is(iotesting.Bacteria)), "kingdom", []string{}},
		{"unknown kingdom", nil, state(is(99)), "kingdom",
			[]string{"Archaea", "Bacteria", "Eukaryota"}},
		{"phylum outside of kingdom", nil,
			state(is(iotesting.Bacteria), is(iotesting.Ascomycota), is(4)), "phylum",
			[]string{"Actinobacteria", "Firmicutes", "Proteobacteria"}},
		{"deep selection", nil,
			state(is(iotesting.Bacteria), is(iotesting.Firmicutes), is(1), is(1)), "family",
			[]string{"Bacillaceae"}},
		{"no species under genus", nil,
			state(is(iotesting.Bacteria), is(iotesting.Proteobacteria), is(2), is(2), is(2), is(2)),
			"species", []string{}},
	}

	for name, st := range iotesting.Backends(t) {
		res := taxonomy.New(st, nil)
		for _, v := range tests {
			msg := name + ": " + v.msg
			out, err := res.Possibilities(ctx, v.amplicon, v.state)
			require.NoError(t, err, msg)
			require.False(t, out.Empty(), msg)
			assert.Equal(t, v.target, out.NewOptions.Target, msg)
			assert.Equal(t, v.labels, labels(out.NewOptions.Possibilities), msg)

			r, err := rank.Parse(v.target)
			require.NoError(t, err, msg)
			assert.Equal(t, rank.Names(rank.From(r)), out.Clear, msg)
		}
	}
}

// TestScenarioBacteria selects a kingdom and expects its phyla with every
// deeper rank to clear.
func TestScenarioBacteria(t *testing.T) {
	res := taxonomy.New(iotesting.MemStore(t), nil)
	out, err := res.Possibilities(context.Background(), nil, state(is(iotesting.Bacteria)))
	require.NoError(t, err)
	assert.Equal(t, &taxonomy.NewOptions{
		Target: "phylum",
		Possibilities: []schema.OntologyEntry{
			{ID: iotesting.Actinobacteria, Label: "Actinobacteria"},
			{ID: iotesting.Firmicutes, Label: "Firmicutes"},
			{ID: iotesting.Proteobacteria, Label: "Proteobacteria"},
		},
	}, out.NewOptions)
	assert.Equal(t,
		[]string{"phylum", "class", "order", "family", "genus", "species"}, out.Clear)
}

func TestCompleteSelection(t *testing.T) {
	ctx := context.Background()
	full := state(is(iotesting.Bacteria), is(iotesting.Firmicutes),
		is(1), is(1), is(1), is(1), is(1))
	for name, st := range iotesting.Backends(t) {
		out, err := taxonomy.New(st, nil).Possibilities(ctx, is(iotesting.Amplicon16S), full)
		require.NoError(t, err, name)
		assert.True(t, out.Empty(), name)
		assert.Nil(t, out.Clear, name)
	}
}

func TestKingdomShortcut(t *testing.T) {
	ctx := context.Background()
	st := iotesting.NewCountingReader(iotesting.MemStore(t))
	res := taxonomy.New(st, nil)

	_, err := res.Possibilities(ctx, nil, state())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Calls())

	_, err = res.Possibilities(ctx, is(iotesting.Amplicon16S), state())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Calls())
}

// TestTargetDepth walks every prefix of a lineage: the target is never
// deeper than the first empty slot, and the clear list always runs from
// the target to species.
func TestTargetDepth(t *testing.T) {
	ctx := context.Background()
	lineage := []*predicate.OpValue{
		is(iotesting.Bacteria), is(iotesting.Firmicutes), is(1), is(1), is(1), is(1), is(1),
	}
	res := taxonomy.New(iotesting.SQLiteStore(t), nil)
	for _, amp := range []*predicate.OpValue{nil, is(iotesting.Amplicon16S), is(iotesting.Amplicon18S)} {
		for n := range rank.Depth {
			st := state(lineage[:n]...)
			out, err := res.Possibilities(ctx, amp, st)
			require.NoError(t, err)
			require.False(t, out.Empty())

			r, err := rank.Parse(out.NewOptions.Target)
			require.NoError(t, err)
			assert.LessOrEqual(t, int(r), st.Depth())
			assert.Equal(t, rank.Names(rank.From(r)), out.Clear)
		}
	}
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	st := iotesting.NewCountingReader(iotesting.MemStore(t))
	c := iocache.NewMemory()
	res := taxonomy.New(st, c)
	s := state(is(iotesting.Bacteria), is(iotesting.Proteobacteria))

	out1, err := res.Possibilities(ctx, nil, s)
	require.NoError(t, err)
	calls := st.Calls()
	assert.Positive(t, calls)
	assert.Equal(t, 1, c.Len())

	out2, err := res.Possibilities(ctx, nil, s)
	require.NoError(t, err)
	assert.Equal(t, calls, st.Calls())
	assert.Equal(t, out1, out2)

	// The caller's state is not changed by resolution.
	assert.Equal(t, "is:3", s[rank.Phylum].Canonical())

	require.NoError(t, c.Clear(ctx))
	_, err = res.Possibilities(ctx, nil, s)
	require.NoError(t, err)
	assert.Greater(t, st.Calls(), calls)
}

func TestCacheSeparatesSources(t *testing.T) {
	ctx := context.Background()
	c := iocache.NewMemory()

	out, err := taxonomy.New(iotesting.MemStore(t), c).Possibilities(ctx, nil, state())
	require.NoError(t, err)
	assert.Len(t, out.NewOptions.Possibilities, 3)

	other := iomem.New()
	require.NoError(t, other.Load(ctx, &schema.Dataset{
		Ontologies: map[string][]schema.OntologyEntry{
			"kingdom": {{ID: 1, Label: "Fungi"}},
		},
	}))
	out, err = taxonomy.New(other, c).Possibilities(ctx, nil, state())
	require.NoError(t, err)
	assert.Equal(t, []string{"Fungi"}, labels(out.NewOptions.Possibilities))
	assert.Equal(t, 2, c.Len())
}

func TestInconsistentState(t *testing.T) {
	res := taxonomy.New(iotesting.MemStore(t), nil)
	_, err := res.Possibilities(context.Background(), nil,
		state(nil, is(iotesting.Firmicutes)))
	var ise *taxonomy.InconsistentStateError
	require.ErrorAs(t, err, &ise)
	assert.Contains(t, ise.Error(), "phylum is selected while kingdom is empty")

	_, err = taxonomy.StateFromSlice(make([]*predicate.OpValue, 3))
	assert.ErrorAs(t, err, &ise)

	s, err := taxonomy.StateFromSlice([]*predicate.OpValue{
		is(1), {Operator: "is"}, nil, nil, nil, nil, nil,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Depth())
	assert.Nil(t, s[rank.Phylum])
}

func TestSearchTaxa(t *testing.T) {
	res := taxonomy.New(iotesting.MemStore(t), nil)
	taxa, err := res.SearchTaxa(context.Background(), "ASCOMYCOTA", 0)
	require.NoError(t, err)
	require.Len(t, taxa, 1)
	assert.Equal(t, int64(5), taxa[0].ID)
}
