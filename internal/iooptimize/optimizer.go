// Package iooptimize implements the Optimizer interface. It runs after
// data is imported, before the portal answers queries.
package iooptimize

import (
	"context"
	"log/slog"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/cache"
	"github.com/gnames/gnotu/pkg/config"
	"github.com/gnames/gnotu/pkg/lifecycle"
	"github.com/gnames/gnotu/pkg/store"
)

// analyzer is implemented by stores that keep planner statistics.
type analyzer interface {
	Analyze(ctx context.Context) error
}

type optimizer struct {
	loader store.Loader
	cache  cache.Cache
}

// NewOptimizer creates a new Optimizer. A nil cache means no result
// cache is configured.
func NewOptimizer(l store.Loader, c cache.Cache) lifecycle.Optimizer {
	if c == nil {
		c = cache.Nop{}
	}
	return &optimizer{loader: l, cache: c}
}

// Optimize executes 3 sequential steps:
//  1. Recompute proportional abundance of every edge
//  2. Refresh planner statistics
//  3. Clear the result cache
func (o *optimizer) Optimize(ctx context.Context, _ *config.Config) error {
	slog.Info("Starting database optimization")
	gn.Info("Optimization in progress, <em>it might take a while</em>...")

	slog.Info("Step 1/3: Recomputing proportional abundance")
	if err := o.loader.UpdateProportions(ctx); err != nil {
		return err
	}

	slog.Info("Step 2/3: Updating statistics")
	if err := o.analyze(ctx); err != nil {
		return err
	}

	slog.Info("Step 3/3: Clearing result cache")
	if err := o.cache.Clear(ctx); err != nil {
		return CacheClearError(err)
	}

	slog.Info("Database optimization completed successfully")
	return nil
}

func (o *optimizer) analyze(ctx context.Context) error {
	a, ok := o.loader.(analyzer)
	if !ok {
		slog.Debug("Store keeps no statistics, skipping")
		return nil
	}

	timeStart := time.Now()
	if err := a.Analyze(ctx); err != nil {
		return AnalyzeError(err)
	}
	slog.Info("Statistics updated", "duration", time.Since(timeStart).String())
	return nil
}
