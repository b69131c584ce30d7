package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/filter"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/taxonomy"
)

// dateLayouts are accepted for date filter bounds.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

type rawOpValue struct {
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type rawTerm struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Is       any    `json:"is"`
	From     any    `json:"from"`
	To       any    `json:"to"`
	Contains any    `json:"contains"`
}

type rawContextual struct {
	Mode        string      `json:"mode"`
	Environment *rawOpValue `json:"environment"`
	Filters     []rawTerm   `json:"filters"`
}

type rawParams struct {
	AmpliconFilter    *rawOpValue   `json:"amplicon_filter"`
	TaxonomyFilters   []*rawOpValue `json:"taxonomy_filters"`
	ContextualFilters rawContextual `json:"contextual_filters"`
}

// ParseParams decodes a JSON search request:
//
//	{
//	  "amplicon_filter": {"operator": "is", "value": 1},
//	  "taxonomy_filters": [{"operator": "is", "value": 2}, null, ...],
//	  "contextual_filters": {
//	    "mode": "and",
//	    "environment": {"operator": "isnot", "value": 1},
//	    "filters": [{"field": "elev", "operator": "between", "from": 1, "to": 9}]
//	  }
//	}
//
// A taxonomy filter of a wrong length gives InconsistentStateError.
// Problems with contextual fields and values are collected, and
// returned together as *filter.ValidationError.
func ParseParams(data []byte, reg *fields.Registry) (Params, error) {
	var raw rawParams
	enc := gnfmt.GNjson{}
	if err := enc.Decode(data, &raw); err != nil {
		return Params{}, fmt.Errorf("cannot decode search parameters: %w", err)
	}

	var ve filter.ValidationError
	var res Params
	var err error

	res.Amplicon, err = cleanOpValue(raw.AmpliconFilter)
	if err != nil {
		ve.Add("amplicon_filter", "%s", err)
	}

	if raw.TaxonomyFilters != nil {
		slots := make([]*predicate.OpValue, len(raw.TaxonomyFilters))
		for i, v := range raw.TaxonomyFilters {
			if slots[i], err = cleanOpValue(v); err != nil {
				ve.Add("taxonomy_filters", "slot %d: %s", i, err)
			}
		}
		if res.Taxonomy, err = taxonomy.StateFromSlice(slots); err != nil {
			return Params{}, err
		}
	}

	cf := raw.ContextualFilters
	mode, err := filter.ParseMode(cf.Mode)
	if err != nil {
		ve.Add("mode", "%s", err)
		mode = filter.ModeAnd
	}
	env, err := cleanOpValue(cf.Environment)
	if err != nil {
		ve.Add("environment", "%s", err)
	}
	res.Contextual, err = filter.New(mode, env)
	if err != nil {
		return Params{}, err
	}

	for _, v := range cf.Filters {
		t, err := buildTerm(reg, v)
		if err != nil {
			name := v.Field
			if name == "" {
				name = "field"
			}
			ve.Add(name, "%s", err)
			continue
		}
		if err = res.Contextual.Add(t); err != nil {
			return Params{}, err
		}
	}

	if err = ve.Err(); err != nil {
		return Params{}, err
	}
	return res, nil
}

// cleanOpValue turns an {operator, value} pair into a selection. A
// missing or empty value means no selection; a missing operator means
// equality.
func cleanOpValue(v *rawOpValue) (*predicate.OpValue, error) {
	if v == nil || v.Value == nil || v.Value == "" {
		return nil, nil
	}
	n, err := toInt(v.Value)
	if err != nil {
		return nil, err
	}
	op := filter.OpIs
	switch v.Operator {
	case "", "=", filter.OpIs:
	case filter.OpIsNot:
		op = filter.OpIsNot
	default:
		return nil, fmt.Errorf("operator '%s' is not supported", v.Operator)
	}
	return predicate.NewOpValue(op, int(n)), nil
}

func buildTerm(reg *fields.Registry, v rawTerm) (filter.Term, error) {
	if v.Field == "" {
		return nil, fmt.Errorf("no contextual field selected")
	}
	f, ok := reg.Lookup(v.Field)
	if !ok {
		return nil, fmt.Errorf("unknown contextual field")
	}

	switch f.Kind {
	case fields.SampleID:
		ids, err := toIntList(v.Is)
		if err != nil {
			return nil, err
		}
		return filter.NewIDInSet(f, v.Operator, ids)
	case fields.Ontology:
		id, err := toInt(v.Is)
		if err != nil {
			return nil, err
		}
		return filter.NewOntologyEquals(f, v.Operator, int(id))
	case fields.Date:
		from, err := toDate(v.From)
		if err != nil {
			return nil, err
		}
		to, err := toDate(v.To)
		if err != nil {
			return nil, err
		}
		return filter.NewDateRange(f, v.Operator, from, to)
	case fields.Float:
		from, err := toFloat(v.From)
		if err != nil {
			return nil, err
		}
		to, err := toFloat(v.To)
		if err != nil {
			return nil, err
		}
		return filter.NewFloatRange(f, v.Operator, from, to)
	case fields.String:
		s, err := toString(v.Contains)
		if err != nil {
			return nil, err
		}
		return filter.NewStringContains(f, v.Operator, s)
	}
	return nil, fmt.Errorf("field kind '%s' cannot be filtered", f.Kind)
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("value %v is not an integer", x)
		}
		// float64(math.MaxInt64) rounds up to 2^63.
		if x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, fmt.Errorf("value %v is out of range", x)
		}
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value '%s' is not an integer", x)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("value is missing")
	}
	return 0, fmt.Errorf("value %v is not an integer", v)
}

func toIntList(v any) ([]int64, error) {
	vv, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("value must be a list of ids")
	}
	res := make([]int64, 0, len(vv))
	for _, x := range vv {
		n, err := toInt(x)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("value '%s' is not a number", x)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("range bound is missing")
	}
	return 0, fmt.Errorf("value %v is not a number", v)
}

func toDate(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("date value %v is not a string", v)
	}
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("value '%s' is not a date", s)
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case nil:
		return "", fmt.Errorf("substring is missing")
	}
	return "", fmt.Errorf("value %v is not a string", v)
}
