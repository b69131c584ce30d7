package lifecycle

import (
	"context"

	"github.com/gnames/gnotu/pkg/config"
)

// Optimizer prepares imported data for querying. It recomputes derived
// columns, refreshes planner statistics and invalidates the result
// cache. Whoever changes portal data must run it afterwards, cached
// results are never invalidated otherwise.
type Optimizer interface {
	Optimize(ctx context.Context, cfg *config.Config) error
}
