package filter

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/schema"
)

// Mode decides how terms of a contextual filter are combined.
type Mode string

const (
	ModeAnd Mode = "and"
	ModeOr  Mode = "or"
)

// ParseMode converts a string to a Mode. Empty string means ModeAnd.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAnd:
		return ModeAnd, nil
	case ModeOr:
		return ModeOr, nil
	}
	return "", fmt.Errorf("unknown combination mode '%s'", s)
}

// ErrSealed is returned when a term is added to a filter that was
// already applied.
var ErrSealed = errors.New("contextual filter was already applied")

// Contextual combines terms under a mode, together with the environment
// pre-filter.
//
// With no terms the combined part is the identity of the query: it
// neither matches nothing under "or" nor errors, it simply does not
// restrict rows. The environment selection is applied in every mode.
type Contextual struct {
	mode Mode
	env  *predicate.OpValue

	mu     sync.Mutex
	terms  []Term
	sealed bool
}

// New creates an empty contextual filter. A nil environment does not
// restrict samples.
func New(mode Mode, env *predicate.OpValue) (*Contextual, error) {
	if mode != ModeAnd && mode != ModeOr {
		return nil, fmt.Errorf("unknown combination mode '%s'", mode)
	}
	if env != nil {
		env = &predicate.OpValue{Operator: env.Operator, Value: env.Value}
	}
	return &Contextual{mode: mode, env: env}, nil
}

// Mode returns the combination mode.
func (c *Contextual) Mode() Mode {
	return c.mode
}

// Environment returns the environment selection, nil if there is none.
func (c *Contextual) Environment() *predicate.OpValue {
	if c.env.Empty() {
		return nil
	}
	return c.env
}

// Add appends terms. It fails after the filter was applied.
func (c *Contextual) Add(terms ...Term) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return ErrSealed
	}
	c.terms = append(c.terms, terms...)
	return nil
}

// Terms returns a copy of the terms in insertion order.
func (c *Contextual) Terms() []Term {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.terms)
}

// Predicate returns the environment condition and the combined term
// conditions. The filter cannot be changed afterwards.
func (c *Contextual) Predicate() predicate.Cond {
	c.mu.Lock()
	c.sealed = true
	terms := c.terms
	c.mu.Unlock()

	var cc []predicate.Cond
	for _, t := range terms {
		cc = append(cc, t.Conditions()...)
	}

	combined := predicate.Always()
	if len(cc) > 0 {
		if c.mode == ModeOr {
			combined = predicate.Or(cc...)
		} else {
			combined = predicate.And(cc...)
		}
	}

	env := c.env.Cond(schema.SampleCol(schema.EnvironmentField))
	return predicate.And(env, combined)
}

// Apply restricts base by the filter.
func (c *Contextual) Apply(base predicate.Cond) predicate.Cond {
	return predicate.And(base, c.Predicate())
}

// Canonical is the order-independent form of a contextual filter.
type Canonical struct {
	Mode        Mode     `json:"mode"`
	Environment string   `json:"environment"`
	Terms       []string `json:"terms"`
}

// Canonical returns the filter state with terms sorted and duplicates
// removed, so filters built in different order look the same.
func (c *Contextual) Canonical() Canonical {
	c.mu.Lock()
	defer c.mu.Unlock()
	terms := make([]string, len(c.terms))
	for i, t := range c.terms {
		terms[i] = t.Canonical()
	}
	slices.Sort(terms)
	return Canonical{
		Mode:        c.mode,
		Environment: c.env.Canonical(),
		Terms:       slices.Compact(terms),
	}
}
