package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/gnames/gnotu/internal/iocache"
	"github.com/gnames/gnotu/internal/iodb"
	"github.com/gnames/gnotu/internal/iosql"
	"github.com/gnames/gnotu/pkg/cache"
	"github.com/gnames/gnotu/pkg/config"
	"github.com/gnames/gnotu/pkg/db"
)

// backend holds the store and the result cache of one command run.
type backend struct {
	store   *iosql.Store
	cache   cache.Cache
	op      db.Operator
	closers []func() error
}

// openBackend connects to the configured store and cache. The sample
// table is checked against the field registry.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	res := &backend{}
	var err error
	if err = res.openStore(ctx, cfg); err != nil {
		res.Close()
		return nil, err
	}
	if err = res.store.CheckColumns(ctx); err != nil {
		res.Close()
		return nil, err
	}
	if res.cache, err = openCache(ctx, cfg); err != nil {
		res.Close()
		return nil, err
	}
	if c, ok := res.cache.(io.Closer); ok {
		res.closers = append(res.closers, c.Close)
	}
	return res, nil
}

func (b *backend) openStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Store.Backend == "sqlite" {
		s, err := iosql.OpenSQLite(ctx, cfg.SQLitePath(), reg)
		if err != nil {
			return err
		}
		b.store = s
		b.closers = append(b.closers, s.Close)
		slog.Info("Using sqlite store", "path", cfg.SQLitePath())
		return nil
	}

	b.op = iodb.NewPgxOperator()
	if err := b.op.Connect(ctx, &cfg.Database, cfg.JobsNumber); err != nil {
		return err
	}
	b.closers = append(b.closers, b.op.Close)

	hasTables, err := b.op.HasTables(ctx)
	if err != nil {
		return err
	}
	if !hasTables {
		return iodb.EmptyDatabaseError(cfg.Database.Host, cfg.Database.Database)
	}
	b.store = iosql.OpenPostgres(b.op.Pool(), reg)
	slog.Info("Using postgres store", "database", cfg.Database.Database)
	return nil
}

func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "sqlite":
		return iocache.NewSQLite(ctx, cfg.CachePath())
	case "memory":
		return iocache.NewMemory(), nil
	}
	return cache.Nop{}, nil
}

// Close releases resources in reverse order of acquisition.
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Warn("Cannot close resource", "error", err)
		}
	}
}
