package iosql

import (
	"database/sql"

	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
)

func scanTargets(n int) ([]any, []any) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	return vals, ptrs
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	res := int(v.Int64)
	return &res
}

// taxonScan receives a row of taxonColumns.
type taxonScan struct {
	id         int64
	code       string
	ranks      [rank.Depth]sql.NullInt64
	amplicon   sql.NullInt64
	endemic    bool
	pathogenic bool
}

func (t *taxonScan) targets() []any {
	res := []any{&t.id, &t.code}
	for i := range t.ranks {
		res = append(res, &t.ranks[i])
	}
	return append(res, &t.amplicon, &t.endemic, &t.pathogenic)
}

func (t *taxonScan) taxon() schema.Taxon {
	res := schema.Taxon{
		ID:         t.id,
		Code:       t.code,
		AmpliconID: intPtr(t.amplicon),
		Endemic:    t.endemic,
		Pathogenic: t.pathogenic,
	}
	for i, r := range rank.All {
		res.SetRankID(r, intPtr(t.ranks[i]))
	}
	return res
}

// sample builds a sample from values of sampleColumns. Fixed columns go
// to their struct fields, the others to Attrs.
func (s *Store) sample(vals []any) schema.Sample {
	var res schema.Sample
	for i, f := range s.sampleColumns() {
		v := f.Normalize(vals[i])
		switch f.Name {
		case "id":
			res.ID, _ = v.(int64)
		case "x":
			res.X, _ = v.(float64)
		case "y":
			res.Y, _ = v.(float64)
		case schema.EnvironmentField:
			if id, ok := v.(int); ok {
				res.EnvironmentID = &id
			}
		default:
			if v == nil {
				continue
			}
			if res.Attrs == nil {
				res.Attrs = make(map[string]any)
			}
			res.Attrs[f.Name] = v
		}
	}
	return res
}

// normalize converts a scanned header value. Labels are strings, other
// values follow their field kind.
func (s *Store) normalize(name string, label bool, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if label || v == nil {
		return v
	}
	if f, ok := s.reg.Lookup(name); ok {
		return f.Normalize(v)
	}
	return v
}
