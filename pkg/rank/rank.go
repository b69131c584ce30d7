// Package rank describes the fixed taxonomic hierarchy used for faceted
// search: kingdom, phylum, class, order, family, genus, species.
package rank

import (
	"fmt"
	"strings"
)

// Rank is one level of the taxonomic hierarchy. Lower values are
// shallower (closer to kingdom).
type Rank int

const (
	Kingdom Rank = iota
	Phylum
	Class
	Order
	Family
	Genus
	Species
)

// Depth is the number of ranks in the hierarchy.
const Depth = 7

// All lists every rank in hierarchy order.
var All = [Depth]Rank{Kingdom, Phylum, Class, Order, Family, Genus, Species}

var names = [Depth]string{
	"kingdom", "phylum", "class", "order", "family", "genus", "species",
}

// String returns the rank name without the `_id` suffix.
func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("rank(%d)", int(r))
	}
	return names[r]
}

// Valid is true for ranks from Kingdom to Species.
func (r Rank) Valid() bool {
	return r >= Kingdom && r <= Species
}

// Column returns the taxon column that holds the rank's ontology id.
func (r Rank) Column() string {
	return r.String() + "_id"
}

// Ontology returns the vocabulary name that stores the rank labels.
func (r Rank) Ontology() string {
	return r.String()
}

// From returns r and every deeper rank in hierarchy order.
func From(r Rank) []Rank {
	if !r.Valid() {
		return nil
	}
	res := make([]Rank, 0, Depth-int(r))
	for _, v := range All[r:] {
		res = append(res, v)
	}
	return res
}

// Names converts ranks to their names.
func Names(rr []Rank) []string {
	res := make([]string, len(rr))
	for i, v := range rr {
		res[i] = v.String()
	}
	return res
}

// Parse accepts a rank name with or without the `_id` suffix.
func Parse(s string) (Rank, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "_id")
	for i, v := range names {
		if v == s {
			return Rank(i), nil
		}
	}
	return -1, fmt.Errorf("unknown taxonomic rank '%s'", s)
}
