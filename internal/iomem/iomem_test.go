package iomem_test

import (
	"context"
	"testing"

	"github.com/gnames/gnotu/internal/iomem"
	"github.com/gnames/gnotu/internal/iotesting"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ store.Reader = (*iomem.Store)(nil)
var _ store.Loader = (*iomem.Store)(nil)

func TestLoadReplaces(t *testing.T) {
	ctx := context.Background()
	st := iotesting.MemStore(t)

	err := st.Load(ctx, &schema.Dataset{
		Samples:    []schema.Sample{{ID: 101, X: 1, Y: 2}},
		Abundances: []schema.Abundance{{SampleID: 101, TaxonID: 1, Count: 70}},
	})
	require.NoError(t, err)

	smp, err := st.Samples(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, smp, 6)
	assert.Equal(t, 1.0, smp[0].X)
	assert.Nil(t, smp[0].Attrs)

	var count float64
	for _, e := range st.Edges() {
		if e.SampleID == 101 && e.TaxonID == 1 {
			count = e.Count
		}
	}
	assert.Equal(t, 70.0, count)
	assert.Len(t, st.Edges(), 13)
}

func TestCopies(t *testing.T) {
	ctx := context.Background()
	st := iotesting.MemStore(t)

	smp, err := st.Samples(ctx, store.Filter{})
	require.NoError(t, err)
	smp[0].Attrs["elev"] = -1.0
	*smp[0].EnvironmentID = 42

	smp, _ = st.Samples(ctx, store.Filter{})
	assert.Equal(t, 50.0, smp[0].Attrs["elev"])
	assert.Equal(t, iotesting.Soil, *smp[0].EnvironmentID)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := iotesting.MemStore(t)

	_, err := st.SampleIDs(ctx, store.Filter{})
	assert.ErrorIs(t, err, context.Canceled)

	for _, err := range st.SampleOTUs(ctx, store.Filter{}) {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
