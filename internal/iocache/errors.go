package iocache

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/errcode"
)

func OpenCacheError(path string, err error) error {
	msg := "Cannot open result cache <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CacheOpenError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot open cache %s: %w",
			fn, path, err),
	}
}

func ClearCacheError(path string, err error) error {
	msg := `Cannot clear result cache <em>%s</em>

<em>Cached results may be stale.</em> Remove the file to be sure.`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CacheClearError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot clear cache %s: %w",
			fn, path, err),
	}
}
