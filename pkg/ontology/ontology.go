// Package ontology gives read-only access to controlled vocabularies.
package ontology

import (
	"context"
	"fmt"
	"slices"

	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
)

// Catalog looks up id/label pairs of the known vocabularies.
type Catalog struct {
	r     store.Reader
	vocab []string
}

// New creates a catalog of the taxonomy vocabularies, the environment
// vocabulary and the given extra ones.
func New(r store.Reader, vocabularies ...string) *Catalog {
	vocab := slices.Concat(
		schema.TaxonomyVocabularies(),
		[]string{schema.EnvironmentVocabulary},
		vocabularies,
	)
	slices.Sort(vocab)
	return &Catalog{r: r, vocab: slices.Compact(vocab)}
}

// Vocabularies returns the sorted vocabulary names.
func (c *Catalog) Vocabularies() []string {
	return slices.Clone(c.vocab)
}

// Values returns all entries of a vocabulary ordered by label. Labels
// compare byte-wise; id breaks ties.
func (c *Catalog) Values(
	ctx context.Context,
	vocabulary string,
) ([]schema.OntologyEntry, error) {
	if !slices.Contains(c.vocab, vocabulary) {
		return nil, &UnknownVocabularyError{Vocabulary: vocabulary}
	}
	return c.r.OntologyValues(ctx, vocabulary)
}

// Label returns the label of an entry. The second value is false when
// the vocabulary has no such id.
func (c *Catalog) Label(
	ctx context.Context,
	vocabulary string,
	id int,
) (string, bool, error) {
	vv, err := c.Values(ctx, vocabulary)
	if err != nil {
		return "", false, err
	}
	for _, v := range vv {
		if v.ID == id {
			return v.Label, true, nil
		}
	}
	return "", false, nil
}

// UnknownVocabularyError means a vocabulary is not registered.
type UnknownVocabularyError struct {
	Vocabulary string
}

func (e *UnknownVocabularyError) Error() string {
	return fmt.Sprintf("unknown vocabulary '%s'", e.Vocabulary)
}
