package predicate

import (
	"strconv"
	"strings"
	"time"
)

// Dialect adapts rendered SQL to a database engine.
type Dialect interface {
	// Name is "postgres" or "sqlite".
	Name() string

	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string

	// Bind converts a value to what the engine stores for it.
	Bind(v any) any

	// Lower is the SQL function that lower-cases text with the same
	// Unicode rules as strings.ToLower.
	Lower() string
}

// SQLiteLower is the function SQLite stores must register for Lower.
// The built-in LOWER of SQLite only folds ASCII letters.
const SQLiteLower = "unicode_lower"

var (
	// Postgres renders `$n` placeholders and binds dates as time.Time.
	Postgres Dialect = postgres{}

	// SQLite renders `?` placeholders and binds dates as ISO strings,
	// because SQLite keeps dates as text.
	SQLite Dialect = sqlite{}
)

type postgres struct{}

func (postgres) Name() string { return "postgres" }

func (postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgres) Bind(v any) any { return v }

func (postgres) Lower() string { return "LOWER" }

type sqlite struct{}

func (sqlite) Name() string { return "sqlite" }

func (sqlite) Placeholder(int) string { return "?" }

func (sqlite) Lower() string { return SQLiteLower }

func (sqlite) Bind(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(DateLayout)
	}
	return v
}

// Builder accumulates a SQL statement together with its arguments.
type Builder struct {
	strings.Builder
	d    Dialect
	args []any
}

// NewBuilder creates a Builder for the given dialect.
func NewBuilder(d Dialect) *Builder {
	return &Builder{d: d}
}

// Arg registers a bind argument and returns its placeholder.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, b.d.Bind(v))
	return b.d.Placeholder(len(b.args))
}

// Column writes a qualified, quoted column reference.
func (b *Builder) Column(c Column) {
	if c.Table != "" {
		b.WriteString(c.Table + ".")
	}
	b.WriteString(Quote(c.Name))
}

// Cond writes a condition.
func (b *Builder) Cond(c Cond) {
	if c == nil {
		c = Always()
	}
	c.render(b)
}

// Args returns arguments in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}

// Quote quotes an SQL identifier.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// SQL renders a single condition, numbering placeholders from 1.
func SQL(c Cond, d Dialect) (string, []any) {
	b := NewBuilder(d)
	b.Cond(c)
	return b.String(), b.Args()
}
