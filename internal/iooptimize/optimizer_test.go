package iooptimize_test

import (
	"context"
	"testing"

	"github.com/gnames/gnotu/internal/iocache"
	"github.com/gnames/gnotu/internal/iomem"
	"github.com/gnames/gnotu/internal/iooptimize"
	"github.com/gnames/gnotu/internal/iotesting"
	"github.com/gnames/gnotu/pkg/cache"
	"github.com/gnames/gnotu/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimize(t *testing.T) {
	ctx := context.Background()
	s := iomem.New()
	require.NoError(t, s.Load(ctx, iotesting.Dataset()))

	c := iocache.NewMemory()
	fp, err := cache.NewFingerprint("SampleQuery", "stale")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, fp, []byte("old")))

	o := iooptimize.NewOptimizer(s, c)
	require.NoError(t, o.Optimize(ctx, config.New()))

	assert.Equal(t, 0, c.Len())
	for _, v := range s.Edges() {
		if v.SampleID == 101 && v.TaxonID == 1 {
			assert.InDelta(t, 0.3, v.ProportionalAbundance, 1e-9)
		}
		if v.SampleID == 102 && v.TaxonID == 6 {
			assert.InDelta(t, 0.5, v.ProportionalAbundance, 1e-9)
		}
	}
}

func TestOptimizeSQLite(t *testing.T) {
	s := iotesting.SQLiteStore(t)
	o := iooptimize.NewOptimizer(s, nil)
	require.NoError(t, o.Optimize(context.Background(), config.New()))

	var p float64
	err := s.DB().QueryRow(`SELECT proportional_abundance FROM sample_otu
WHERE sample_id = 103 AND taxon_id = 2`).Scan(&p)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p, 1e-9)
}
