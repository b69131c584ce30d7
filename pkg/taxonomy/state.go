// Package taxonomy resolves faceted selections over the taxonomic
// hierarchy.
//
// A selection is a State with one slot per rank. The Resolver finds the
// first rank whose slot is empty or matches no taxa under the slots
// before it, and returns the values that remain selectable there
// together with the ranks the caller has to clear.
package taxonomy

import (
	"fmt"

	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
)

// State holds a selection for every rank, kingdom first. A nil slot
// means no selection.
type State [rank.Depth]*predicate.OpValue

// StateFromSlice converts a decoded taxonomy filter into a State.
func StateFromSlice(ss []*predicate.OpValue) (State, error) {
	var res State
	if len(ss) != rank.Depth {
		return res, &InconsistentStateError{
			Msg: fmt.Sprintf("taxonomy filter has %d slots, want %d", len(ss), rank.Depth),
		}
	}
	for i, v := range ss {
		if !v.Empty() {
			res[i] = v
		}
	}
	return res, res.Validate()
}

// Validate checks that selected slots form a prefix of the hierarchy.
func (s State) Validate() error {
	gap := -1
	for i, v := range s {
		switch {
		case v.Empty() && gap < 0:
			gap = i
		case !v.Empty() && gap >= 0:
			return &InconsistentStateError{
				Msg: fmt.Sprintf("%s is selected while %s is empty",
					rank.Rank(i), rank.Rank(gap)),
			}
		}
	}
	return nil
}

// Depth returns the number of selected slots.
func (s State) Depth() int {
	for i, v := range s {
		if v.Empty() {
			return i
		}
	}
	return rank.Depth
}

// Cond returns the condition on taxa selected by the slots before rank
// r, without amplicon restriction.
func (s State) Cond(r rank.Rank) predicate.Cond {
	var cc []predicate.Cond
	for _, v := range rank.All[:r] {
		cc = append(cc, s[v].Cond(schema.TaxonCol(v.Column())))
	}
	return predicate.And(cc...)
}

// Canonical returns the canonical form of every slot.
func (s State) Canonical() []string {
	res := make([]string, len(s))
	for i, v := range s {
		res[i] = v.Canonical()
	}
	return res
}

// AmpliconCond returns the amplicon restriction on taxa.
func AmpliconCond(amplicon *predicate.OpValue) predicate.Cond {
	return amplicon.Cond(schema.TaxonCol("amplicon_id"))
}

// InconsistentStateError means a taxonomy filter reached the resolver
// in a shape it cannot be walked in.
type InconsistentStateError struct {
	Msg string
}

func (e *InconsistentStateError) Error() string {
	return "inconsistent taxonomy state: " + e.Msg
}
