package iosql

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/errcode"
)

func OpenStoreError(path string, err error) error {
	msg := "Cannot open database <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StoreOpenError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot open %s: %w",
			fn, path, err),
	}
}

// QueryError wraps a failed store operation. The cause stays reachable
// through errors.Is and errors.As.
func QueryError(op string, err error) error {
	msg := "Query <em>%s</em> failed"
	vars := []any{op}
	return &gn.Error{
		Code: errcode.StoreQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("%s: %w", op, err),
	}
}

func LoadError(err error) error {
	msg := `Cannot load data

<em>Possible causes:</em>
  - Schema was not created, run <em>gnotu create</em>
  - Records with duplicate ids
  - Field registry does not match the sample table`
	return &gn.Error{
		Code: errcode.StoreLoadError,
		Msg:  msg,
		Err:  fmt.Errorf("cannot load dataset: %w", err),
	}
}

func ProportionsError(err error) error {
	msg := "Cannot compute proportional abundance"
	return &gn.Error{
		Code: errcode.StoreProportionsError,
		Msg:  msg,
		Err:  fmt.Errorf("cannot update proportions: %w", err),
	}
}
