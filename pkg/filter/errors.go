package filter

import (
	"fmt"
	"strings"

	"github.com/gnames/gnotu/pkg/fields"
)

// TermKindError means a term was constructed with a field or operand
// that does not fit its kind. It is a programming error: boundary
// validation must catch such input before terms are built.
type TermKindError struct {
	Field string
	Kind  fields.Kind
	Msg   string
}

func (e *TermKindError) Error() string {
	return fmt.Sprintf("field '%s' (%s): %s", e.Field, e.Kind, e.Msg)
}

// FieldProblem is one rejected filter entry.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem of a filter specification so
// they can be reported together.
type ValidationError struct {
	Problems []FieldProblem `json:"problems"`
}

// Add records a problem.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Problems = append(e.Problems, FieldProblem{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Err returns e if it holds problems, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, v := range e.Problems {
		msgs[i] = v.Field + ": " + v.Message
	}
	return "invalid filter: " + strings.Join(msgs, "; ")
}
