// Package predicate provides the condition trees used to filter taxa,
// samples and abundance edges.
//
// A condition is built once and can be used in two ways: rendered into a
// SQL WHERE fragment for a particular Dialect, or evaluated against an
// in-memory Row. Evaluation follows SQL three-valued logic, so both ways
// select exactly the same rows: a comparison with a NULL operand is
// Unknown, NOT Unknown is Unknown, and only True rows match.
package predicate

import (
	"slices"
	"strings"
)

// Column identifies a column of one of the logical tables. Table is the
// alias the column is qualified with ("t" for taxa, "s" for samples, "a"
// for abundance edges).
type Column struct {
	Table string
	Name  string
}

// Col creates a Column.
func Col(table, name string) Column {
	return Column{Table: table, Name: name}
}

func (c Column) String() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}

// Row provides column values for in-memory evaluation. A nil value
// represents SQL NULL, as does a column the row does not know.
type Row interface {
	Value(Column) any
}

// Cond is a composable condition.
type Cond interface {
	// Eval evaluates the condition against a row.
	Eval(Row) Truth

	// Canonical returns a deterministic textual form of the condition.
	Canonical() string

	render(*Builder)
}

// Eq matches rows where col equals v. A nil v matches NULL.
func Eq(col Column, v any) Cond {
	return cmp{col: col, op: "=", val: v}
}

// Ne matches rows where col differs from v. As in SQL, NULL values
// never match.
func Ne(col Column, v any) Cond {
	return cmp{col: col, op: "<>", val: v}
}

// Between matches rows where lo <= col <= hi.
func Between(col Column, lo, hi any) Cond {
	return between{col: col, lo: lo, hi: hi}
}

// Contains matches rows where col contains sub, ignoring case. Case is
// folded with strings.ToLower in memory and with Dialect.Lower in SQL.
func Contains(col Column, sub string) Cond {
	return contains{col: col, sub: sub}
}

// In matches rows where col is one of vals. An empty list matches
// nothing.
func In[T any](col Column, vals []T) Cond {
	res := in{col: col, vals: make([]any, len(vals))}
	for i := range vals {
		res.vals[i] = vals[i]
	}
	return res
}

// Not negates c.
func Not(c Cond) Cond {
	return not{c: c}
}

// And matches when every condition holds. And() is always true.
func And(cc ...Cond) Cond {
	return newGroup("AND", cc)
}

// Or matches when any condition holds. Or() is always false.
func Or(cc ...Cond) Cond {
	return newGroup("OR", cc)
}

// Always is a condition that holds for every row.
func Always() Cond {
	return constant(true)
}

// Never is a condition that holds for no row.
func Never() Cond {
	return constant(false)
}

// IsAlways reports whether c is trivially true.
func IsAlways(c Cond) bool {
	v, ok := c.(constant)
	return ok && bool(v)
}

type cmp struct {
	col Column
	op  string
	val any
}

func (c cmp) Eval(r Row) Truth {
	v := r.Value(c.col)
	if c.val == nil {
		if c.op == "=" {
			return truth(v == nil)
		}
		return truth(v != nil)
	}
	if v == nil {
		return Unknown
	}
	res, ok := compare(v, c.val)
	if !ok {
		return truth(c.op == "<>")
	}
	if c.op == "=" {
		return truth(res == 0)
	}
	return truth(res != 0)
}

func (c cmp) Canonical() string {
	name := "eq"
	if c.op == "<>" {
		name = "ne"
	}
	return name + "(" + c.col.String() + "," + formatValue(c.val) + ")"
}

func (c cmp) render(b *Builder) {
	b.Column(c.col)
	switch {
	case c.val == nil && c.op == "=":
		b.WriteString(" IS NULL")
	case c.val == nil:
		b.WriteString(" IS NOT NULL")
	default:
		b.WriteString(" " + c.op + " " + b.Arg(c.val))
	}
}

type between struct {
	col    Column
	lo, hi any
}

func (c between) Eval(r Row) Truth {
	v := r.Value(c.col)
	if v == nil || c.lo == nil || c.hi == nil {
		return Unknown
	}
	lo, ok1 := compare(v, c.lo)
	hi, ok2 := compare(v, c.hi)
	if !ok1 || !ok2 {
		return False
	}
	return truth(lo >= 0 && hi <= 0)
}

func (c between) Canonical() string {
	return "between(" + c.col.String() + "," + formatValue(c.lo) + "," +
		formatValue(c.hi) + ")"
}

func (c between) render(b *Builder) {
	b.Column(c.col)
	b.WriteString(" BETWEEN " + b.Arg(c.lo) + " AND " + b.Arg(c.hi))
}

type contains struct {
	col Column
	sub string
}

func (c contains) Eval(r Row) Truth {
	v := r.Value(c.col)
	if v == nil {
		return Unknown
	}
	s := strings.ToLower(toString(v))
	return truth(strings.Contains(s, strings.ToLower(c.sub)))
}

func (c contains) Canonical() string {
	return "contains(" + c.col.String() + "," + formatValue(c.sub) + ")"
}

func (c contains) render(b *Builder) {
	pattern := "%" + escapeLike(strings.ToLower(c.sub)) + "%"
	b.WriteString(b.d.Lower() + "(")
	b.Column(c.col)
	b.WriteString(") LIKE " + b.Arg(pattern) + ` ESCAPE '\'`)
}

type in struct {
	col  Column
	vals []any
}

func (c in) Eval(r Row) Truth {
	if len(c.vals) == 0 {
		return False
	}
	v := r.Value(c.col)
	if v == nil {
		return Unknown
	}
	for _, w := range c.vals {
		if res, ok := compare(v, w); ok && res == 0 {
			return True
		}
	}
	return False
}

func (c in) Canonical() string {
	vals := make([]string, len(c.vals))
	for i, v := range c.vals {
		vals[i] = formatValue(v)
	}
	return "in(" + c.col.String() + ",[" + strings.Join(vals, ",") + "])"
}

func (c in) render(b *Builder) {
	if len(c.vals) == 0 {
		b.WriteString("1 = 0")
		return
	}
	b.Column(c.col)
	b.WriteString(" IN (")
	for i, v := range c.vals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(b.Arg(v))
	}
	b.WriteString(")")
}

type not struct {
	c Cond
}

func (c not) Eval(r Row) Truth {
	return c.c.Eval(r).Not()
}

func (c not) Canonical() string {
	return "not(" + c.c.Canonical() + ")"
}

func (c not) render(b *Builder) {
	b.WriteString("NOT (")
	c.c.render(b)
	b.WriteString(")")
}

type group struct {
	op string
	cc []Cond
}

// newGroup drops neutral elements, so And(Always(), x) is x and an
// empty group collapses to its identity constant.
func newGroup(op string, cc []Cond) Cond {
	identity := op == "AND"
	res := make([]Cond, 0, len(cc))
	for _, c := range cc {
		if c == nil {
			continue
		}
		if v, ok := c.(constant); ok {
			if bool(v) == identity {
				continue
			}
			return v
		}
		res = append(res, c)
	}
	switch len(res) {
	case 0:
		return constant(identity)
	case 1:
		return res[0]
	}
	return group{op: op, cc: slices.Clip(res)}
}

func (c group) Eval(r Row) Truth {
	if c.op == "AND" {
		res := True
		for _, v := range c.cc {
			switch v.Eval(r) {
			case False:
				return False
			case Unknown:
				res = Unknown
			}
		}
		return res
	}
	res := False
	for _, v := range c.cc {
		switch v.Eval(r) {
		case True:
			return True
		case Unknown:
			res = Unknown
		}
	}
	return res
}

func (c group) Canonical() string {
	parts := make([]string, len(c.cc))
	for i, v := range c.cc {
		parts[i] = v.Canonical()
	}
	return strings.ToLower(c.op) + "(" + strings.Join(parts, ",") + ")"
}

func (c group) render(b *Builder) {
	b.WriteString("(")
	for i, v := range c.cc {
		if i > 0 {
			b.WriteString(" " + c.op + " ")
		}
		v.render(b)
	}
	b.WriteString(")")
}

type constant bool

func (c constant) Eval(Row) Truth {
	return truth(bool(c))
}

func (c constant) Canonical() string {
	if c {
		return "true"
	}
	return "false"
}

func (c constant) render(b *Builder) {
	if c {
		b.WriteString("1 = 1")
		return
	}
	b.WriteString("1 = 0")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
