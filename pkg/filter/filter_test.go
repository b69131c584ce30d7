package filter_test

import (
	"testing"
	"time"

	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/filter"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row map[string]any

func (r row) Value(c predicate.Column) any {
	return r[c.String()]
}

var (
	elev     = fields.Field{Name: "elev", Kind: fields.Float}
	soil     = fields.Field{Name: "soil_type", Kind: fields.String}
	land     = fields.Field{Name: "land_type_id", Kind: fields.Ontology, Ontology: "land_type"}
	collDate = fields.Field{Name: "collection_date", Kind: fields.Date}
	sampleID = fields.Field{Name: "id", Kind: fields.SampleID}
)

func date(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

var rows = []row{
	{"s.id": int64(1), "s.elev": 50.0, "s.soil_type": "Sandy", "s.land_type_id": 3,
		"s.collection_date": date("2019-01-10"), "s.environment_id": 1},
	{"s.id": int64(2), "s.elev": 100.0, "s.soil_type": "Red CLAY", "s.land_type_id": 1,
		"s.collection_date": date("2020-02-01"), "s.environment_id": 1},
	{"s.id": int64(3), "s.elev": 499.5, "s.soil_type": "loam", "s.land_type_id": 2,
		"s.collection_date": date("2021-06-30"), "s.environment_id": 2},
	{"s.id": int64(4), "s.elev": 900.0, "s.soil_type": "clay loam",
		"s.collection_date": date("2020-12-31"), "s.environment_id": 2},
	{"s.id": int64(5)},
}

func match(c predicate.Cond) []int64 {
	var res []int64
	for _, r := range rows {
		if c.Eval(r).Holds() {
			res = append(res, r["s.id"].(int64))
		}
	}
	return res
}

func all(t filter.Term) predicate.Cond {
	return predicate.And(t.Conditions()...)
}

func TestTermKind(t *testing.T) {
	var kerr *filter.TermKindError

	_, err := filter.NewFloatRange(soil, "between", 1, 2)
	assert.ErrorAs(t, err, &kerr)
	_, err = filter.NewOntologyEquals(land, "between", 1)
	assert.ErrorAs(t, err, &kerr)
	_, err = filter.NewStringContains(elev, "contains", "x")
	assert.ErrorAs(t, err, &kerr)
	_, err = filter.NewDateRange(collDate, "between", time.Time{}, date("2020-01-01"))
	assert.ErrorAs(t, err, &kerr)
	_, err = filter.NewIDInSet(land, "in", []int64{1})
	assert.ErrorAs(t, err, &kerr)

	tm, err := filter.NewOntologyEquals(land, "", 1)
	require.NoError(t, err)
	assert.Equal(t, "is", tm.Operator())
}

// TestNegation checks that a negated term matches exactly the rows the
// positive term rejects, among rows where the field is present.
func TestNegation(t *testing.T) {
	pairs := []struct {
		msg      string
		pos, neg func() (filter.Term, error)
	}{
		{"float",
			func() (filter.Term, error) { return filter.NewFloatRange(elev, "between", 100, 500) },
			func() (filter.Term, error) { return filter.NewFloatRange(elev, "notbetween", 100, 500) },
		},
		{"date",
			func() (filter.Term, error) {
				return filter.NewDateRange(collDate, "is", date("2020-01-01"), date("2020-12-31"))
			},
			func() (filter.Term, error) {
				return filter.NewDateRange(collDate, "isnot", date("2020-01-01"), date("2020-12-31"))
			},
		},
		{"string",
			func() (filter.Term, error) { return filter.NewStringContains(soil, "contains", "clay") },
			func() (filter.Term, error) { return filter.NewStringContains(soil, "containsnot", "clay") },
		},
		{"ontology",
			func() (filter.Term, error) { return filter.NewOntologyEquals(land, "is", 3) },
			func() (filter.Term, error) { return filter.NewOntologyEquals(land, "isnot", 3) },
		},
		{"ids",
			func() (filter.Term, error) { return filter.NewIDInSet(sampleID, "in", []int64{2, 4}) },
			func() (filter.Term, error) { return filter.NewIDInSet(sampleID, "isnot", []int64{2, 4}) },
		},
	}

	for _, v := range pairs {
		pos, err := v.pos()
		require.NoError(t, err, v.msg)
		neg, err := v.neg()
		require.NoError(t, err, v.msg)
		assert.False(t, pos.Negated(), v.msg)
		assert.True(t, neg.Negated(), v.msg)

		for _, r := range rows {
			p := all(pos).Eval(r)
			n := all(neg).Eval(r)
			assert.Equal(t, p.Not(), n, v.msg)
		}
	}
}

func TestTermMatches(t *testing.T) {
	fr, _ := filter.NewFloatRange(elev, "between", 100, 500)
	assert.Equal(t, []int64{2, 3}, match(all(fr)))

	dr, _ := filter.NewDateRange(collDate, "between", date("2020-01-01"), date("2020-12-31"))
	assert.Equal(t, []int64{2, 4}, match(all(dr)))

	sc, _ := filter.NewStringContains(soil, "is", "clay")
	assert.Equal(t, []int64{2, 4}, match(all(sc)))

	ids, _ := filter.NewIDInSet(sampleID, "in", []int64{5, 1, 5})
	assert.Equal(t, []int64{1, 5}, ids.IDs)
	assert.Equal(t, []int64{1, 5}, match(all(ids)))

	// NULL ontology values never match an inequality.
	oe, _ := filter.NewOntologyEquals(land, "isnot", 3)
	assert.Equal(t, []int64{2, 3}, match(all(oe)))
}

func TestContextualModes(t *testing.T) {
	sc, _ := filter.NewStringContains(soil, "is", "clay")
	oe, _ := filter.NewOntologyEquals(land, "is", 3)

	cf, err := filter.New(filter.ModeOr, nil)
	require.NoError(t, err)
	require.NoError(t, cf.Add(sc, oe))
	assert.Equal(t, []int64{1, 2, 4}, match(cf.Predicate()))

	cf, _ = filter.New(filter.ModeAnd, nil)
	_ = cf.Add(sc, oe)
	assert.Empty(t, match(cf.Predicate()))
}

// TestEmptyTerms checks that an empty term list restricts nothing in
// either mode.
func TestEmptyTerms(t *testing.T) {
	for _, m := range []filter.Mode{filter.ModeAnd, filter.ModeOr} {
		cf, err := filter.New(m, nil)
		require.NoError(t, err)
		assert.True(t, predicate.IsAlways(cf.Predicate()), m)
		assert.Len(t, match(cf.Apply(predicate.Always())), len(rows), m)
	}
}

func TestEnvironment(t *testing.T) {
	fr, _ := filter.NewFloatRange(elev, "between", 0, 1000)
	for _, m := range []filter.Mode{filter.ModeAnd, filter.ModeOr} {
		cf, _ := filter.New(m, predicate.NewOpValue("is", 2))
		_ = cf.Add(fr)
		assert.Equal(t, []int64{3, 4}, match(cf.Predicate()), m)
	}

	cf, _ := filter.New(filter.ModeOr, predicate.NewOpValue("isnot", 2))
	assert.Equal(t, []int64{1, 2}, match(cf.Predicate()))
	assert.Equal(t, "isnot:2", cf.Environment().Canonical())

	empty, _ := filter.New(filter.ModeAnd, &predicate.OpValue{Operator: "is"})
	assert.Nil(t, empty.Environment())
}

func TestSealed(t *testing.T) {
	fr, _ := filter.NewFloatRange(elev, "between", 0, 1)
	cf, _ := filter.New(filter.ModeAnd, nil)
	require.NoError(t, cf.Add(fr))
	cf.Apply(predicate.Always())
	assert.ErrorIs(t, cf.Add(fr), filter.ErrSealed)
	assert.Len(t, cf.Terms(), 1)
}

func TestCanonicalOrder(t *testing.T) {
	fr, _ := filter.NewFloatRange(elev, "is", 100, 500)
	fr2, _ := filter.NewFloatRange(elev, "between", 100, 500)
	sc, _ := filter.NewStringContains(soil, "contains", "Clay")
	oe, _ := filter.NewOntologyEquals(land, "is", 3)

	a, _ := filter.New(filter.ModeOr, predicate.NewOpValue("is", 1))
	_ = a.Add(fr, sc, oe)
	b, _ := filter.New(filter.ModeOr, predicate.NewOpValue("is", 1))
	_ = b.Add(oe, sc, fr2)
	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.Equal(t, []string{
		"elev|between|100|500",
		`land_type_id|is|3`,
		`soil_type|contains|"clay"`,
	}, a.Canonical().Terms)

	c, _ := filter.New(filter.ModeAnd, predicate.NewOpValue("is", 1))
	_ = c.Add(oe, sc, fr)
	assert.NotEqual(t, a.Canonical(), c.Canonical())
}

func TestParseMode(t *testing.T) {
	m, err := filter.ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, filter.ModeAnd, m)
	_, err = filter.ParseMode("xor")
	assert.Error(t, err)
	_, err = filter.New("xor", nil)
	assert.Error(t, err)
}

func TestValidationError(t *testing.T) {
	var verr filter.ValidationError
	assert.NoError(t, verr.Err())
	verr.Add("elev", "bad bound %q", "abc")
	verr.Add("nope", "unknown field")
	assert.EqualError(t, verr.Err(),
		`invalid filter: elev: bad bound "abc"; nope: unknown field`)
}
