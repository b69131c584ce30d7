// Package query turns amplicon, taxonomy and contextual filters into
// sample result sets.
//
// A SampleQuery is built once per request from validated Params. Its
// result sets are memoized in a cache under fingerprints of the full
// filter state, except the taxon x abundance x sample cross product,
// which is streamed and never cached.
package query

import (
	"context"
	"fmt"
	"iter"
	"strconv"

	"github.com/gnames/gnotu/pkg/cache"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/filter"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
	"github.com/gnames/gnotu/pkg/taxonomy"
)

// Topic prefixes fingerprints of SampleQuery results.
const Topic = "SampleQuery"

// Params are the filters of a search.
type Params struct {
	// Amplicon restricts taxa by amplicon. Nil means any amplicon.
	Amplicon *predicate.OpValue

	// Taxonomy is the hierarchy selection.
	Taxonomy taxonomy.State

	// Contextual restricts samples by their fields. Nil means no
	// restriction.
	Contextual *filter.Contextual
}

// SampleQuery executes searches for one set of Params.
type SampleQuery struct {
	r   store.Reader
	c   cache.Cache
	reg *fields.Registry

	// taxa is nil when neither amplicon nor taxonomy restrict anything.
	taxa    predicate.Cond
	samples predicate.Cond
	state   fingerprintState
}

type fingerprintState struct {
	Source     string           `json:"source"`
	Amplicon   string           `json:"amplicon"`
	Taxonomy   []string         `json:"taxonomy"`
	Contextual filter.Canonical `json:"contextual"`
	Extra      []string         `json:"extra,omitempty"`
}

// New creates a SampleQuery. The contextual filter is sealed, terms
// cannot be added to it afterwards. A nil cache disables memoization.
func New(
	r store.Reader,
	c cache.Cache,
	reg *fields.Registry,
	p Params,
) (*SampleQuery, error) {
	if err := p.Taxonomy.Validate(); err != nil {
		return nil, err
	}
	cf := p.Contextual
	if cf == nil {
		var err error
		if cf, err = filter.New(filter.ModeAnd, nil); err != nil {
			return nil, err
		}
	}
	if c == nil {
		c = cache.Nop{}
	}

	res := &SampleQuery{
		r:       r,
		c:       c,
		reg:     reg,
		samples: cf.Predicate(),
		state: fingerprintState{
			Source:     r.Source(),
			Amplicon:   p.Amplicon.Canonical(),
			Taxonomy:   p.Taxonomy.Canonical(),
			Contextual: cf.Canonical(),
		},
	}
	// A deeper slot cannot be set without kingdom, so an empty kingdom
	// slot together with no amplicon means no taxonomy restriction.
	if !p.Amplicon.Empty() || !p.Taxonomy[rank.Kingdom].Empty() {
		res.taxa = predicate.And(
			taxonomy.AmpliconCond(p.Amplicon),
			p.Taxonomy.Cond(rank.Depth),
		)
	}
	return res, nil
}

func (q *SampleQuery) filter() store.Filter {
	return store.Filter{Taxa: q.taxa, Samples: q.samples}
}

func (q *SampleQuery) fingerprint(topic string, extra ...string) (cache.Fingerprint, error) {
	st := q.state
	st.Extra = extra
	return cache.NewFingerprint(Topic+":"+topic, st)
}

func fetch[T any](
	ctx context.Context,
	q *SampleQuery,
	compute func(context.Context) (T, error),
	topic string,
	extra ...string,
) (T, error) {
	fp, err := q.fingerprint(topic, extra...)
	if err != nil {
		var zero T
		return zero, err
	}
	return cache.Fetch(ctx, q.c, fp, compute)
}

// MatchingSampleIDs returns ids of samples that pass every filter, in
// ascending order.
func (q *SampleQuery) MatchingSampleIDs(ctx context.Context) ([]int64, error) {
	return fetch(ctx, q, func(ctx context.Context) ([]int64, error) {
		return q.r.SampleIDs(ctx, q.filter())
	}, "MatchingSampleIDs")
}

// MatchingSampleIDsAndEnvironment returns ids of matching samples with
// their environment.
func (q *SampleQuery) MatchingSampleIDsAndEnvironment(
	ctx context.Context,
) ([]store.SampleEnv, error) {
	return fetch(ctx, q, func(ctx context.Context) ([]store.SampleEnv, error) {
		return q.r.SampleIDsEnv(ctx, q.filter())
	}, "MatchingSampleIDsAndEnvironment")
}

// MatchingSamples returns full rows of matching samples ordered by id.
func (q *SampleQuery) MatchingSamples(ctx context.Context) ([]schema.Sample, error) {
	return fetch(ctx, q, func(ctx context.Context) ([]schema.Sample, error) {
		return q.r.Samples(ctx, q.filter())
	}, "MatchingSamples")
}

// Sort directions of MatchingSampleHeaders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// MatchingSampleHeaders returns a tabular view of matching samples. The
// columns are id, environment_id and the required fields; ontology
// fields among the required ones are shown as labels. Rows are sorted
// by the projected column sortCol in direction sortDir; an empty
// sortDir keeps the id order.
func (q *SampleQuery) MatchingSampleHeaders(
	ctx context.Context,
	required []string,
	sortCol int,
	sortDir string,
) ([][]any, error) {
	p := store.Projection{
		Columns: []store.HeaderColumn{{Name: "id"}, {Name: schema.EnvironmentField}},
	}
	extra := []string{"headers"}
	for _, name := range required {
		if name == "" {
			continue
		}
		f, ok := q.reg.Lookup(name)
		if !ok {
			return nil, UnknownFieldError(name)
		}
		col := store.HeaderColumn{Name: f.Column()}
		if f.Kind == fields.Ontology {
			col.Vocabulary = f.Ontology
		}
		p.Columns = append(p.Columns, col)
		extra = append(extra, name)
	}

	switch sortDir {
	case "":
	case SortAsc, SortDesc:
		if sortCol < 0 || sortCol >= len(p.Columns) {
			return nil, fmt.Errorf("sort column %d is out of range", sortCol)
		}
		p.SortColumn = sortCol
		p.SortDesc = sortDir == SortDesc
		extra = append(extra, "sort", strconv.Itoa(sortCol), sortDir)
	default:
		return nil, fmt.Errorf("unknown sort direction '%s'", sortDir)
	}

	return fetch(ctx, q, func(ctx context.Context) ([][]any, error) {
		return q.r.SampleHeaders(ctx, q.filter(), p)
	}, "MatchingSampleHeaders", extra...)
}

func (q *SampleQuery) otuFilter(kingdom *int) store.Filter {
	f := q.filter()
	if kingdom != nil {
		f.Taxa = predicate.And(
			store.Cond(f.Taxa),
			predicate.Eq(schema.TaxonCol(rank.Kingdom.Column()), *kingdom),
		)
	}
	return f
}

func kingdomKey(kingdom *int) string {
	if kingdom == nil {
		return "kingdom:null"
	}
	return "kingdom:" + strconv.Itoa(*kingdom)
}

// MatchingSampleOTUs streams taxon, abundance edge and sample of every
// edge that passes the filters, optionally restricted to one kingdom.
// The sequence is lazy and is not cached; the consumer can stop at any
// time.
func (q *SampleQuery) MatchingSampleOTUs(
	ctx context.Context,
	kingdom *int,
) iter.Seq2[schema.OTURow, error] {
	return q.r.SampleOTUs(ctx, q.otuFilter(kingdom))
}

// HasMatchingSampleOTUs reports whether MatchingSampleOTUs would yield
// anything.
func (q *SampleQuery) HasMatchingSampleOTUs(
	ctx context.Context,
	kingdom *int,
) (bool, error) {
	return fetch(ctx, q, func(ctx context.Context) (bool, error) {
		return q.r.SampleOTUsExist(ctx, q.otuFilter(kingdom))
	}, "HasMatchingSampleOTUs", kingdomKey(kingdom))
}
