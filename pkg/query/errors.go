package query

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/errcode"
)

// ReadQueryError means a query file could not be read.
func ReadQueryError(path string, err error) error {
	msg := "Cannot read query file <em>%s</em>"
	return &gn.Error{
		Code: errcode.QueryFileError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("cannot read query %s: %w", path, err),
	}
}

// InvalidQueryError reports a query that ParseParams rejected. The
// cause, often a *filter.ValidationError, lists every problem.
func InvalidQueryError(err error) error {
	msg := `Invalid query: %s

Fix the listed fields and repeat the search`
	return &gn.Error{
		Code: errcode.QueryValidationError,
		Msg:  msg,
		Vars: []any{err},
		Err:  fmt.Errorf("invalid query: %w", err),
	}
}

// UnknownFieldError means a field is not in the registry.
func UnknownFieldError(name string) error {
	msg := `Unknown contextual field <em>%s</em>

Run <em>gnotu fields</em> to see available fields`
	return &gn.Error{
		Code: errcode.QueryUnknownFieldError,
		Msg:  msg,
		Vars: []any{name},
		Err:  fmt.Errorf("unknown contextual field '%s'", name),
	}
}

// SampleNotFoundError means no sample has the given id.
func SampleNotFoundError(id int64) error {
	msg := "Sample <em>%d</em> not found"
	return &gn.Error{
		Code: errcode.QuerySampleNotFoundError,
		Msg:  msg,
		Vars: []any{id},
		Err:  fmt.Errorf("sample %d not found", id),
	}
}
