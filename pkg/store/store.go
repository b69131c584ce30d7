// Package store defines the read contract between the query engine and
// the relational data of the portal.
//
// Implementations execute predicate-filtered projections over three
// logical tables, taxa (alias "t"), samples ("s") and abundance edges
// ("a"), plus one id/label table per vocabulary. Every method is a
// self-contained operation: it acquires its own connection and releases
// it before returning, or, for SampleOTUs, when iteration stops.
package store

import (
	"context"
	"iter"

	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
)

// Filter restricts samples, optionally through their taxa.
type Filter struct {
	// Taxa is a condition on taxon columns. When it is not nil, only
	// samples with at least one abundance edge into a matching taxon
	// qualify. Nil means no taxonomy restriction.
	Taxa predicate.Cond

	// Samples is a condition on sample columns. Nil matches every
	// sample.
	Samples predicate.Cond
}

// HeaderColumn is one projected sample column. Columns with a
// Vocabulary are returned as labels of that vocabulary instead of ids.
type HeaderColumn struct {
	Name       string
	Vocabulary string
}

// Projection describes the tabular view of samples.
type Projection struct {
	Columns []HeaderColumn

	// SortColumn is the index of the projected column rows are sorted
	// by. Sample id breaks ties.
	SortColumn int

	// SortDesc reverses the order.
	SortDesc bool
}

// Reader gives read-only access to the portal data.
type Reader interface {
	// Source identifies the dataset the reader serves, for example
	// "sqlite:/data/gnotu.db". Cached results are keyed by it, so two
	// readers share cache entries only when their sources are equal.
	Source() string

	// TaxaExist reports whether any taxon matches cond.
	TaxaExist(ctx context.Context, cond predicate.Cond) (bool, error)

	// RankValues returns the distinct ontology entries referenced at rank
	// r by taxa that match cond, ordered by label then id. Taxa without a
	// value at r are ignored.
	RankValues(
		ctx context.Context, r rank.Rank, cond predicate.Cond,
	) ([]schema.OntologyEntry, error)

	// OntologyValues returns every entry of a vocabulary ordered by label
	// then id.
	OntologyValues(
		ctx context.Context, vocabulary string,
	) ([]schema.OntologyEntry, error)

	// SampleIDs returns ids of matching samples in ascending order.
	SampleIDs(ctx context.Context, f Filter) ([]int64, error)

	// SampleIDsEnv returns ids and environment ids of matching samples
	// ordered by id. A missing environment is nil.
	SampleIDsEnv(ctx context.Context, f Filter) ([]SampleEnv, error)

	// Samples returns full rows of matching samples ordered by id.
	Samples(ctx context.Context, f Filter) ([]schema.Sample, error)

	// SampleHeaders returns projected rows of matching samples.
	SampleHeaders(ctx context.Context, f Filter, p Projection) ([][]any, error)

	// FieldValues returns the distinct non-NULL values of a sample
	// column in ascending order. Values of a column with a Vocabulary are
	// its labels; ids without a label are skipped.
	FieldValues(ctx context.Context, c HeaderColumn) ([]any, error)

	// SampleOTUs streams the taxon x abundance x sample cross product of
	// rows whose taxon matches f.Taxa and whose sample matches f.Samples,
	// ordered by sample id then taxon id. Rows are read lazily; the
	// connection is released when the sequence ends or the consumer
	// stops.
	SampleOTUs(ctx context.Context, f Filter) iter.Seq2[schema.OTURow, error]

	// SampleOTUsExist reports whether SampleOTUs would yield any row.
	SampleOTUsExist(ctx context.Context, f Filter) (bool, error)

	// SearchTaxa returns taxa whose code contains text, ignoring case,
	// ordered by code.
	SearchTaxa(ctx context.Context, text string, limit int) ([]schema.Taxon, error)
}

// SampleEnv pairs a sample id with its environment.
type SampleEnv struct {
	ID            int64 `json:"id"`
	EnvironmentID *int  `json:"environment_id"`
}

// Loader writes a complete dataset. It is the seam used by the import
// pipeline and by test fixtures.
type Loader interface {
	// Load inserts the dataset records.
	Load(ctx context.Context, ds *schema.Dataset) error

	// UpdateProportions recomputes proportional abundance of every edge.
	UpdateProportions(ctx context.Context) error
}

// Cond returns c, or a condition matching everything when c is nil.
func Cond(c predicate.Cond) predicate.Cond {
	if c == nil {
		return predicate.Always()
	}
	return c
}
