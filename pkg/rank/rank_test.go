package rank_test

import (
	"testing"

	"github.com/gnames/gnotu/pkg/rank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankNames(t *testing.T) {
	assert.Equal(t, "kingdom", rank.Kingdom.String())
	assert.Equal(t, "species_id", rank.Species.Column())
	assert.Equal(t, "class", rank.Class.Ontology())
	assert.Equal(t, rank.Depth, len(rank.All))
	assert.False(t, rank.Rank(7).Valid())
}

func TestFrom(t *testing.T) {
	tests := []struct {
		msg string
		r   rank.Rank
		res []string
	}{
		{"kingdom", rank.Kingdom, []string{"kingdom", "phylum", "class",
			"order", "family", "genus", "species"}},
		{"phylum", rank.Phylum, []string{"phylum", "class", "order",
			"family", "genus", "species"}},
		{"species", rank.Species, []string{"species"}},
	}

	for _, v := range tests {
		assert.Equal(t, v.res, rank.Names(rank.From(v.r)), v.msg)
	}
	assert.Nil(t, rank.From(rank.Rank(-1)))
}

func TestParse(t *testing.T) {
	r, err := rank.Parse("Genus_id")
	require.NoError(t, err)
	assert.Equal(t, rank.Genus, r)

	_, err = rank.Parse("tribe")
	assert.Error(t, err)
}
