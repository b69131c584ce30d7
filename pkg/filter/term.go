// Package filter compiles typed contextual constraints on sample fields
// into predicates.
//
// A Term wraps one registry field together with an operator and its
// operands. Terms are immutable values: constructors validate the
// operand shape once, and Conditions can be called any number of times
// from any goroutine. A Contextual filter combines terms under one mode
// and adds the environment pre-filter.
package filter

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gnlib"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/schema"
)

// Operators accepted by terms.
const (
	OpIs          = "is"
	OpIsNot       = "isnot"
	OpBetween     = "between"
	OpNotBetween  = "notbetween"
	OpContains    = "contains"
	OpContainsNot = "containsnot"
	OpIn          = "in"
)

// Term is a constraint on a single contextual field.
type Term interface {
	// Field is the name of the constrained field.
	Field() string

	// Operator is the operator the term was built with.
	Operator() string

	// Negated is true when the term excludes the rows its operands
	// describe.
	Negated() bool

	// Conditions returns composable conditions, already negated for the
	// negating operators.
	Conditions() []predicate.Cond

	// Canonical returns a stable textual form. Terms with equivalent
	// operators ("is" and "between" on a range) share it.
	Canonical() string
}

// negation maps every operator a kind accepts to whether it negates.
var negation = map[fields.Kind]map[string]bool{
	fields.Float:    {OpIs: false, OpBetween: false, OpIsNot: true, OpNotBetween: true},
	fields.Date:     {OpIs: false, OpBetween: false, OpIsNot: true, OpNotBetween: true},
	fields.String:   {OpIs: false, OpContains: false, OpIsNot: true, OpContainsNot: true},
	fields.Ontology: {OpIs: false, OpIsNot: true},
	fields.SampleID: {OpIs: false, OpIn: false, OpIsNot: true},
}

// Operators returns the operators a field kind accepts, sorted.
func Operators(k fields.Kind) []string {
	var res []string
	for op := range negation[k] {
		res = append(res, op)
	}
	slices.Sort(res)
	return res
}

// base keeps what every term has in common.
type base struct {
	field fields.Field
	op    string
	neg   bool
}

func newBase(f fields.Field, op string, kinds ...fields.Kind) (base, error) {
	if !slices.Contains(kinds, f.Kind) {
		return base{}, &TermKindError{
			Field: f.Name, Kind: f.Kind,
			Msg: fmt.Sprintf("term needs a field of kind %v", kinds),
		}
	}
	if op == "" {
		op = OpIs
	}
	neg, ok := negation[f.Kind][op]
	if !ok {
		return base{}, &TermKindError{
			Field: f.Name, Kind: f.Kind,
			Msg: fmt.Sprintf("operator '%s' is not supported", op),
		}
	}
	return base{field: f, op: op, neg: neg}, nil
}

func (b base) Field() string    { return b.field.Name }
func (b base) Operator() string { return b.op }
func (b base) Negated() bool    { return b.neg }

func (b base) col() predicate.Column {
	return schema.SampleCol(b.field.Column())
}

func (b base) wrap(cc ...predicate.Cond) []predicate.Cond {
	if !b.neg {
		return cc
	}
	res := make([]predicate.Cond, len(cc))
	for i := range cc {
		res[i] = predicate.Not(cc[i])
	}
	return res
}

func (b base) canonical(positive, negative string, operands ...string) string {
	op := positive
	if b.neg {
		op = negative
	}
	return strings.Join(append([]string{b.field.Name, op}, operands...), "|")
}

// FloatRange matches samples whose field lies in [From, To].
type FloatRange struct {
	base
	From, To float64
}

// NewFloatRange creates a range term over a float field.
func NewFloatRange(f fields.Field, op string, from, to float64) (FloatRange, error) {
	b, err := newBase(f, op, fields.Float)
	if err != nil {
		return FloatRange{}, err
	}
	if math.IsNaN(from) || math.IsNaN(to) {
		return FloatRange{}, &TermKindError{
			Field: f.Name, Kind: f.Kind, Msg: "range bounds must be numbers",
		}
	}
	return FloatRange{base: b, From: from, To: to}, nil
}

func (t FloatRange) Conditions() []predicate.Cond {
	return t.wrap(predicate.Between(t.col(), t.From, t.To))
}

func (t FloatRange) Canonical() string {
	return t.canonical(OpBetween, OpNotBetween,
		strconv.FormatFloat(t.From, 'g', -1, 64),
		strconv.FormatFloat(t.To, 'g', -1, 64))
}

// DateRange matches samples whose field lies between two dates,
// inclusive.
type DateRange struct {
	base
	From, To time.Time
}

// NewDateRange creates a range term over a date field. Only the date
// part of the bounds is kept.
func NewDateRange(f fields.Field, op string, from, to time.Time) (DateRange, error) {
	b, err := newBase(f, op, fields.Date)
	if err != nil {
		return DateRange{}, err
	}
	if from.IsZero() || to.IsZero() {
		return DateRange{}, &TermKindError{
			Field: f.Name, Kind: f.Kind, Msg: "range bounds must be dates",
		}
	}
	return DateRange{base: b, From: day(from), To: day(to)}, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (t DateRange) Conditions() []predicate.Cond {
	return t.wrap(predicate.Between(t.col(), t.From, t.To))
}

func (t DateRange) Canonical() string {
	return t.canonical(OpBetween, OpNotBetween,
		t.From.Format(predicate.DateLayout), t.To.Format(predicate.DateLayout))
}

// StringContains matches samples whose field contains a substring,
// ignoring case. Case is folded by lower-casing both sides, the same
// way taxon code search does it.
type StringContains struct {
	base
	Substring string
}

// NewStringContains creates a substring term over a string field.
// Broken UTF-8 in substring is repaired first.
func NewStringContains(f fields.Field, op, substring string) (StringContains, error) {
	b, err := newBase(f, op, fields.String)
	if err != nil {
		return StringContains{}, err
	}
	return StringContains{base: b, Substring: gnlib.FixUtf8(substring)}, nil
}

func (t StringContains) Conditions() []predicate.Cond {
	return t.wrap(predicate.Contains(t.col(), t.Substring))
}

func (t StringContains) Canonical() string {
	return t.canonical(OpContains, OpContainsNot,
		strconv.Quote(strings.ToLower(t.Substring)))
}

// OntologyEquals matches samples whose ontology field references an
// entry.
type OntologyEquals struct {
	base
	ID int
}

// NewOntologyEquals creates an equality term over an ontology field.
func NewOntologyEquals(f fields.Field, op string, id int) (OntologyEquals, error) {
	b, err := newBase(f, op, fields.Ontology)
	if err != nil {
		return OntologyEquals{}, err
	}
	return OntologyEquals{base: b, ID: id}, nil
}

func (t OntologyEquals) Conditions() []predicate.Cond {
	return t.wrap(predicate.Eq(t.col(), t.ID))
}

func (t OntologyEquals) Canonical() string {
	return t.canonical(OpIs, OpIsNot, strconv.Itoa(t.ID))
}

// IDInSet matches samples whose id is one of a list.
type IDInSet struct {
	base
	IDs []int64
}

// NewIDInSet creates a set membership term over the sample id field.
// The ids are copied, sorted and deduplicated.
func NewIDInSet(f fields.Field, op string, ids []int64) (IDInSet, error) {
	b, err := newBase(f, op, fields.SampleID)
	if err != nil {
		return IDInSet{}, err
	}
	ids = slices.Clone(ids)
	slices.Sort(ids)
	return IDInSet{base: b, IDs: slices.Compact(ids)}, nil
}

func (t IDInSet) Conditions() []predicate.Cond {
	return t.wrap(predicate.In(t.col(), t.IDs))
}

func (t IDInSet) Canonical() string {
	ids := make([]string, len(t.IDs))
	for i, v := range t.IDs {
		ids[i] = strconv.FormatInt(v, 10)
	}
	return t.canonical(OpIn, OpIsNot, "["+strings.Join(ids, ",")+"]")
}
