package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gnames/gnotu/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	data   map[cache.Fingerprint][]byte
	getErr error
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[cache.Fingerprint][]byte)}
}

func (m *mapCache) Get(_ context.Context, fp cache.Fingerprint) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[fp]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, fp cache.Fingerprint, v []byte) error {
	m.data[fp] = v
	return nil
}

func (m *mapCache) Clear(context.Context) error {
	clear(m.data)
	return nil
}

func TestFingerprint(t *testing.T) {
	type state struct {
		Amplicon string   `json:"amplicon"`
		Terms    []string `json:"terms"`
	}
	fp1, err := cache.NewFingerprint("SampleIDs", state{"is:1", []string{"a", "b"}})
	require.NoError(t, err)
	fp2, err := cache.NewFingerprint("SampleIDs", state{"is:1", []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1.String(), 36)

	fp3, _ := cache.NewFingerprint("Samples", state{"is:1", []string{"a", "b"}})
	fp4, _ := cache.NewFingerprint("SampleIDs", state{"is:2", []string{"a", "b"}})
	fp5, _ := cache.NewFingerprint("SampleIDs", state{"is:1", []string{"ab"}})
	assert.NotEqual(t, fp1, fp3)
	assert.NotEqual(t, fp1, fp4)
	assert.NotEqual(t, fp1, fp5)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	fp, _ := cache.NewFingerprint("t", 1)

	calls := 0
	compute := func(context.Context) (map[string]any, error) {
		calls++
		return map[string]any{
			"date": time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
			"elev": 10.5,
		}, nil
	}

	res, err := cache.Fetch(ctx, c, fp, compute)
	require.NoError(t, err)
	res2, err := cache.Fetch(ctx, c, fp, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, res, res2)

	require.NoError(t, c.Clear(ctx))
	_, err = cache.Fetch(ctx, c, fp, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetchErrors(t *testing.T) {
	ctx := context.Background()
	fp, _ := cache.NewFingerprint("t", 2)

	c := newMapCache()
	c.getErr = errors.New("broken")
	res, err := cache.Fetch(ctx, c, fp, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	boom := errors.New("boom")
	c = newMapCache()
	_, err = cache.Fetch(ctx, c, fp, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.data)

	res, err = cache.Fetch(ctx, nil, fp, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, res)
}
