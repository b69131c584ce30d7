package query

import (
	"context"

	"github.com/gnames/gnotu/pkg/cache"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
)

// FieldValues returns the distinct values a contextual field takes
// across all samples, in ascending order, for value suggestions.
// Ontology fields give labels. The result is cached per store.
func FieldValues(
	ctx context.Context,
	r store.Reader,
	c cache.Cache,
	reg *fields.Registry,
	name string,
) ([]any, error) {
	f, ok := reg.Lookup(name)
	if !ok {
		return nil, UnknownFieldError(name)
	}
	col := store.HeaderColumn{Name: f.Column()}
	if f.Kind == fields.Ontology {
		col.Vocabulary = f.Ontology
	}
	if c == nil {
		c = cache.Nop{}
	}

	fp, err := cache.NewFingerprint(Topic+":FieldValues", struct {
		Source string `json:"source"`
		Field  string `json:"field"`
	}{Source: r.Source(), Field: f.Name})
	if err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, c, fp, func(ctx context.Context) ([]any, error) {
		return r.FieldValues(ctx, col)
	})
}

// Sample returns the full contextual record of one sample.
func Sample(ctx context.Context, r store.Reader, id int64) (schema.Sample, error) {
	ss, err := r.Samples(ctx, store.Filter{
		Samples: predicate.Eq(schema.SampleCol("id"), id),
	})
	if err != nil {
		return schema.Sample{}, err
	}
	if len(ss) == 0 {
		return schema.Sample{}, SampleNotFoundError(id)
	}
	return ss[0], nil
}
