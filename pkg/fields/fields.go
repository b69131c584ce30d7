// Package fields is the static registry of sample contextual fields.
//
// Every field a contextual filter or a tabular projection can reference
// is declared once, either as a built-in or in fields.yaml, and checked
// against the database schema at startup. Queries never look columns up
// by arbitrary names, so an invalid field name fails at configuration
// time instead of deep inside query construction.
package fields

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/gnames/gnotu/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Kind is the declared type of a contextual field. It decides which
// filter term a field accepts and how its values are stored.
type Kind string

const (
	Float    Kind = "float"
	Date     Kind = "date"
	String   Kind = "string"
	Ontology Kind = "ontology"
	SampleID Kind = "sample_id"
)

func (k Kind) valid() bool {
	switch k {
	case Float, Date, String, Ontology, SampleID:
		return true
	}
	return false
}

// Field describes one sample column.
type Field struct {
	// Name is the column name in the sample table.
	Name string `yaml:"name" json:"name"`

	Kind Kind `yaml:"kind" json:"type"`

	// Ontology is the vocabulary of an ontology-kind field.
	Ontology string `yaml:"ontology,omitempty" json:"ontology,omitempty"`

	// Units is a free-form unit label, for example "m" or "lat".
	Units string `yaml:"units,omitempty" json:"units,omitempty"`

	// DisplayName is shown by user interfaces. It is derived from Name
	// when empty.
	DisplayName string `yaml:"display_name,omitempty" json:"display_name"`

	// Environment is set for fields that only make sense in one
	// environment (soil or marine).
	Environment string `yaml:"environment,omitempty" json:"environment,omitempty"`
}

// Column returns the field's column in the sample table.
func (f Field) Column() string {
	return f.Name
}

// SQLType returns the column type used when the registry adds the field
// to the sample table.
func (f Field) SQLType() string {
	switch f.Kind {
	case Float:
		return "DOUBLE PRECISION"
	case Date:
		return "DATE"
	case Ontology:
		return "INTEGER"
	case SampleID:
		return "BIGINT"
	}
	return "TEXT"
}

// Normalize converts a stored value to the field's Go type, so values
// coming from different database drivers compare the same way. Nil stays
// nil.
func (f Field) Normalize(v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch f.Kind {
	case Float:
		switch x := v.(type) {
		case float32:
			return float64(x)
		case int64:
			return float64(x)
		case int:
			return float64(x)
		}
	case Ontology:
		switch x := v.(type) {
		case int64:
			return int(x)
		case float64:
			return int(x)
		}
	case SampleID:
		if x, ok := v.(int); ok {
			return int64(x)
		}
	case Date:
		switch x := v.(type) {
		case time.Time:
			return x.UTC().Truncate(24 * time.Hour)
		case string:
			if len(x) >= 10 {
				if t, err := time.Parse(time.DateOnly, x[:10]); err == nil {
					return t
				}
			}
		}
	}
	return v
}

var identRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var builtins = []Field{
	{Name: "id", Kind: SampleID, DisplayName: "Sample ID"},
	{Name: "x", Kind: Float, Units: "lng", DisplayName: "Longitude"},
	{Name: "y", Kind: Float, Units: "lat", DisplayName: "Latitude"},
	{
		Name:        schema.EnvironmentField,
		Kind:        Ontology,
		Ontology:    schema.EnvironmentVocabulary,
		DisplayName: "Environment",
	},
}

// Registry is the immutable set of known fields.
type Registry struct {
	fields []Field
	byName map[string]Field
}

// New creates a registry from built-in fields plus extra ones.
func New(extra ...Field) (*Registry, error) {
	res := &Registry{byName: make(map[string]Field)}
	var problems []string
	for _, f := range slices.Concat(builtins, extra) {
		if f.DisplayName == "" {
			f.DisplayName = DisplayName(f.Name)
		}
		if err := f.check(); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if _, ok := res.byName[f.Name]; ok {
			problems = append(problems, fmt.Sprintf("field '%s' is declared twice", f.Name))
			continue
		}
		res.byName[f.Name] = f
		res.fields = append(res.fields, f)
	}
	if len(problems) > 0 {
		return nil, &RegistryError{Problems: problems}
	}
	return res, nil
}

func (f Field) check() error {
	if !identRx.MatchString(f.Name) {
		return fmt.Errorf("field name '%s' is not a valid identifier", f.Name)
	}
	if !f.Kind.valid() {
		return fmt.Errorf("field '%s' has unknown kind '%s'", f.Name, f.Kind)
	}
	if f.Kind == Ontology && !identRx.MatchString(f.Ontology) {
		return fmt.Errorf("ontology field '%s' needs a valid vocabulary name", f.Name)
	}
	if f.Kind != Ontology && f.Ontology != "" {
		return fmt.Errorf("field '%s' of kind '%s' cannot have a vocabulary", f.Name, f.Kind)
	}
	return nil
}

type file struct {
	Fields []Field `yaml:"fields"`
}

// Parse creates a registry from YAML content of the fields file.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("cannot parse fields file: %w", err)
	}
	return New(f.Fields...)
}

// Load reads the fields file at path. An empty path gives a registry of
// built-in fields only.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read fields file %s: %w", path, err)
	}
	return Parse(data)
}

// Lookup returns the field of the given name.
func (r *Registry) Lookup(name string) (Field, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// Fields returns all fields, built-ins first, in declaration order.
func (r *Registry) Fields() []Field {
	return slices.Clone(r.fields)
}

// Extra returns the deployment-specific fields, the ones that are not
// fixed columns of the sample table.
func (r *Registry) Extra() []Field {
	return slices.Clone(r.fields[len(builtins):])
}

// Vocabularies returns the sorted distinct vocabularies of ontology
// fields.
func (r *Registry) Vocabularies() []string {
	var res []string
	for _, f := range r.fields {
		if f.Kind == Ontology && !slices.Contains(res, f.Ontology) {
			res = append(res, f.Ontology)
		}
	}
	slices.Sort(res)
	return res
}

// Definitions returns the field list shown by user interfaces, sorted by
// display name.
func (r *Registry) Definitions() []Field {
	res := r.Fields()
	slices.SortStableFunc(res, func(a, b Field) int {
		return strings.Compare(a.DisplayName, b.DisplayName)
	})
	return res
}

// CheckColumns makes sure every field exists among the actual columns of
// the sample table.
func (r *Registry) CheckColumns(columns []string) error {
	var problems []string
	for _, f := range r.fields {
		if !slices.Contains(columns, f.Column()) {
			problems = append(problems,
				fmt.Sprintf("field '%s' has no column in %s", f.Name, schema.SampleTable))
		}
	}
	if len(problems) > 0 {
		return &RegistryError{Problems: problems}
	}
	return nil
}

// DisplayName converts a column name to a title, "soil_type_id" becomes
// "Soil Type".
func DisplayName(name string) string {
	name = strings.TrimSuffix(name, "_id")
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })
	for i, w := range words {
		rr := []rune(w)
		rr[0] = unicode.ToUpper(rr[0])
		words[i] = string(rr)
	}
	return strings.Join(words, " ")
}

// RegistryError lists every problem found in field declarations.
type RegistryError struct {
	Problems []string
}

func (e *RegistryError) Error() string {
	return "invalid field registry: " + strings.Join(e.Problems, "; ")
}
