package predicate

import "strconv"

// OpValue is an `{operator, value}` selection against an integer column,
// the shape of amplicon, environment and taxonomy filters. The operator
// "isnot" means inequality, anything else means equality.
type OpValue struct {
	Operator string `json:"operator"`
	Value    *int   `json:"value"`
}

// NewOpValue creates a selection of value v.
func NewOpValue(op string, v int) *OpValue {
	return &OpValue{Operator: op, Value: &v}
}

// Empty is true when there is no selection.
func (o *OpValue) Empty() bool {
	return o == nil || o.Value == nil
}

// Negated is true for the "isnot" operator.
func (o *OpValue) Negated() bool {
	return o != nil && o.Operator == "isnot"
}

// Cond turns the selection into a condition on col. An empty selection
// restricts nothing.
func (o *OpValue) Cond(col Column) Cond {
	if o.Empty() {
		return Always()
	}
	if o.Negated() {
		return Ne(col, *o.Value)
	}
	return Eq(col, *o.Value)
}

// Canonical returns "null", "is:<v>" or "isnot:<v>".
func (o *OpValue) Canonical() string {
	if o.Empty() {
		return "null"
	}
	op := "is"
	if o.Negated() {
		op = "isnot"
	}
	return op + ":" + strconv.Itoa(*o.Value)
}

func (o *OpValue) String() string {
	return o.Canonical()
}
