package query_test

import (
	"context"
	"testing"

	"github.com/gnames/gnotu/internal/iotesting"
	"github.com/gnames/gnotu/pkg/filter"
	"github.com/gnames/gnotu/pkg/query"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	ctx := context.Background()
	reg := iotesting.Registry(t)
	tests := []struct {
		msg  string
		json string
		res  []int64
	}{
		{"empty object", `{}`, []int64{101, 102, 103, 104, 105, 106}},
		{"float range", `{
			"amplicon_filter": {"operator": "is", "value": ""},
			"taxonomy_filters": [null, null, null, null, null, null, null],
			"contextual_filters": {
				"mode": "and",
				"environment": null,
				"filters": [{"field": "elev", "operator": "between", "from": 100, "to": "500"}]
			}
		}`, []int64{102, 103, 104}},
		{"or mode", `{
			"contextual_filters": {
				"mode": "or",
				"filters": [
					{"field": "soil_type", "operator": "is", "contains": "clay"},
					{"field": "land_type_id", "operator": "is", "is": 3}
				]
			}
		}`, []int64{101, 102, 103, 104, 106}},
		{"both date layouts", `{
			"contextual_filters": {
				"filters": [{"field": "collection_date", "from": "2020-01-01", "to": "31/12/2020"}]
			}
		}`, []int64{102, 103}},
		{"taxonomy and amplicon as strings", `{
			"amplicon_filter": {"operator": "=", "value": "1"},
			"taxonomy_filters": [{"value": 2}, {"operator": "isnot", "value": 2}, null, {}, null, null, null]
		}`, []int64{101, 102, 103, 105, 106}},
		{"environment and ids", `{
			"contextual_filters": {
				"environment": {"operator": "isnot", "value": 2},
				"filters": [{"field": "id", "operator": "in", "is": [105, "103", 101]}]
			}
		}`, []int64{101, 103}},
	}

	st := iotesting.MemStore(t)
	for _, v := range tests {
		p, err := query.ParseParams([]byte(v.json), reg)
		require.NoError(t, err, v.msg)
		q, err := query.New(st, nil, reg, p)
		require.NoError(t, err, v.msg)
		res, err := q.MatchingSampleIDs(ctx)
		require.NoError(t, err, v.msg)
		assert.Equal(t, v.res, res, v.msg)
	}
}

func TestParseParamsState(t *testing.T) {
	p, err := query.ParseParams([]byte(`{
		"amplicon_filter": {"operator": "isnot", "value": 2},
		"taxonomy_filters": [{"operator": "is", "value": 2}, null, null, null, null, null, null],
		"contextual_filters": {"mode": "or", "environment": {"value": 1}, "filters": []}
	}`), iotesting.Registry(t))
	require.NoError(t, err)
	assert.Equal(t, "isnot:2", p.Amplicon.Canonical())
	assert.Equal(t, "is:2", p.Taxonomy[rank.Kingdom].Canonical())
	assert.Equal(t, 1, p.Taxonomy.Depth())
	assert.Equal(t, filter.ModeOr, p.Contextual.Mode())
	assert.Equal(t, "is:1", p.Contextual.Environment().Canonical())
}

func TestParseParamsProblems(t *testing.T) {
	reg := iotesting.Registry(t)
	_, err := query.ParseParams([]byte(`{
		"amplicon_filter": {"operator": "like", "value": 1},
		"contextual_filters": {
			"mode": "xor",
			"filters": [
				{"field": "depth", "from": 1, "to": 2},
				{"field": "elev", "from": "high", "to": 2},
				{"field": "collection_date", "from": "2020-13-45", "to": "2021-01-01"},
				{"field": "land_type_id", "operator": "between", "is": 1},
				{"field": "soil_type", "operator": "contains", "contains": "loam"},
				{"field": "", "is": 1}
			]
		}
	}`), reg)

	var ve *filter.ValidationError
	require.ErrorAs(t, err, &ve)
	names := make([]string, len(ve.Problems))
	for i, v := range ve.Problems {
		names[i] = v.Field
	}
	assert.Equal(t, []string{
		"amplicon_filter", "mode", "depth", "elev", "collection_date",
		"land_type_id", "field",
	}, names)
	assert.Contains(t, err.Error(), "depth: unknown contextual field")
}

func TestParseParamsIntRange(t *testing.T) {
	reg := iotesting.Registry(t)
	_, err := query.ParseParams([]byte(`{
		"amplicon_filter": {"value": 1e300},
		"contextual_filters": {
			"environment": {"value": -9.3e18},
			"filters": [{"field": "id", "operator": "in", "is": [101, 9.3e18]}]
		}
	}`), reg)

	var ve *filter.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Problems, 3)
	for _, v := range ve.Problems {
		assert.Contains(t, v.Message, "out of range", v.Field)
	}

	p, err := query.ParseParams([]byte(`{"amplicon_filter": {"value": 9.2e18}}`), reg)
	require.NoError(t, err)
	assert.Equal(t, "is:9200000000000000000", p.Amplicon.Canonical())
}

func TestParseParamsTaxonomyLength(t *testing.T) {
	_, err := query.ParseParams([]byte(`{"taxonomy_filters": [null, null]}`),
		iotesting.Registry(t))
	var ise *taxonomy.InconsistentStateError
	assert.ErrorAs(t, err, &ise)

	_, err = query.ParseParams([]byte(`{"taxonomy_filters": [null, {"value": 1}, null, null, null, null, null]}`),
		iotesting.Registry(t))
	assert.ErrorAs(t, err, &ise)

	_, err = query.ParseParams([]byte(`{"taxonomy_filters": `), iotesting.Registry(t))
	assert.Error(t, err)
}
