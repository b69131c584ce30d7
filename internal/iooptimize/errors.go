package iooptimize

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/errcode"
)

// AnalyzeError wraps a failed VACUUM or ANALYZE.
func AnalyzeError(err error) error {
	msg := `Cannot update database statistics

<em>How to fix:</em>
  1. Make sure no other process holds a lock on the database
  2. Check database user is the owner of portal tables`

	return &gn.Error{
		Code: errcode.StoreAnalyzeError,
		Msg:  msg,
		Err:  fmt.Errorf("vacuum analyze: %w", err),
	}
}

// CacheClearError is returned when stale results cannot be removed.
// Queries would keep returning data from before the import.
func CacheClearError(err error) error {
	msg := `Cannot clear result cache

Remove the cache file manually or run <em>gnotu cache clear</em>`

	return &gn.Error{
		Code: errcode.CacheClearError,
		Msg:  msg,
		Err:  fmt.Errorf("clear cache: %w", err),
	}
}
