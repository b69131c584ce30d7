package taxonomy

import (
	"context"
	"log/slog"

	"github.com/gnames/gnlib"
	"github.com/gnames/gnotu/pkg/cache"
	"github.com/gnames/gnotu/pkg/ontology"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
)

// Topic of cached resolver results.
const Topic = "TaxonomyOptions"

// NewOptions are the values selectable at the target rank.
type NewOptions struct {
	// Target is the rank name without the `_id` suffix.
	Target string `json:"target"`

	// Possibilities are ordered by label.
	Possibilities []schema.OntologyEntry `json:"possibilities"`
}

// Result is the outcome of resolving a selection. A complete valid
// selection gives an empty Result that encodes as `{}`.
type Result struct {
	NewOptions *NewOptions `json:"new_options,omitempty"`

	// Clear lists the target rank and every deeper rank.
	Clear []string `json:"clear,omitempty"`
}

// Empty is true when nothing remains to be selected.
func (r Result) Empty() bool {
	return r.NewOptions == nil
}

// Resolver computes facet options of the hierarchy.
type Resolver struct {
	r   store.Reader
	cat *ontology.Catalog
	c   cache.Cache
}

// New creates a Resolver. A nil cache disables memoization.
func New(r store.Reader, c cache.Cache) *Resolver {
	if c == nil {
		c = cache.Nop{}
	}
	return &Resolver{r: r, cat: ontology.New(r), c: c}
}

type fingerprintState struct {
	Source   string   `json:"source"`
	Amplicon string   `json:"amplicon"`
	Taxonomy []string `json:"taxonomy"`
}

// Possibilities finds the first rank where the state is empty or
// matches no taxa, and returns the values available at that rank.
func (res *Resolver) Possibilities(
	ctx context.Context,
	amplicon *predicate.OpValue,
	state State,
) (Result, error) {
	if err := state.Validate(); err != nil {
		return Result{}, err
	}
	fp, err := cache.NewFingerprint(Topic, fingerprintState{
		Source:   res.r.Source(),
		Amplicon: amplicon.Canonical(),
		Taxonomy: state.Canonical(),
	})
	if err != nil {
		return Result{}, err
	}

	out, err := cache.Fetch(ctx, res.c, fp, func(ctx context.Context) (Result, error) {
		return res.resolve(ctx, amplicon, state)
	})
	if err != nil {
		return Result{}, err
	}
	if out.NewOptions != nil && out.NewOptions.Possibilities == nil {
		out.NewOptions.Possibilities = []schema.OntologyEntry{}
	}
	return out, nil
}

// target returns the first rank that is empty or has no taxa under the
// accepted slots before it. The second value is false when every rank
// is valid.
func (res *Resolver) target(
	ctx context.Context,
	amplicon *predicate.OpValue,
	state State,
) (rank.Rank, bool, error) {
	accepted := []predicate.Cond{AmpliconCond(amplicon)}
	for _, r := range rank.All {
		if state[r].Empty() {
			return r, true, nil
		}
		c := state[r].Cond(schema.TaxonCol(r.Column()))
		ok, err := res.r.TaxaExist(ctx, predicate.And(append(accepted, c)...))
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return r, true, nil
		}
		accepted = append(accepted, c)
	}
	return 0, false, nil
}

func (res *Resolver) resolve(
	ctx context.Context,
	amplicon *predicate.OpValue,
	state State,
) (Result, error) {
	target, ok, err := res.target(ctx, amplicon, state)
	if err != nil || !ok {
		return Result{}, err
	}

	var poss []schema.OntologyEntry
	if target == rank.Kingdom && amplicon.Empty() {
		poss, err = res.cat.Values(ctx, rank.Kingdom.Ontology())
	} else {
		for _, r := range rank.From(target) {
			state[r] = nil
		}
		cond := predicate.And(AmpliconCond(amplicon), state.Cond(target))
		poss, err = res.r.RankValues(ctx, target, cond)
	}
	if err != nil {
		return Result{}, err
	}

	slog.Debug("Taxonomy options",
		"target", target.String(), "possibilities", len(poss))
	return Result{
		NewOptions: &NewOptions{Target: target.String(), Possibilities: poss},
		Clear:      rank.Names(rank.From(target)),
	}, nil
}

// SearchTaxa finds taxa whose lineage code contains text, ignoring case
// the same way substring filters do. A limit of zero returns every
// match.
func (res *Resolver) SearchTaxa(
	ctx context.Context,
	text string,
	limit int,
) ([]schema.Taxon, error) {
	return res.r.SearchTaxa(ctx, gnlib.FixUtf8(text), limit)
}
