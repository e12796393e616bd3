package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bool64/stats"
	"github.com/elinofoods/storefront/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadThrough_Get(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	st := &stats.TrackerMock{}

	store := cache.NewMemory(cache.Config{Now: clock.Now, SweepInterval: -1})
	defer store.Close()

	rt := cache.NewReadThrough(store, cache.ReadThroughConfig{Name: "products", Stats: st})
	assert.Equal(t, store, rt.Store())

	builds := 0
	build := func(ctx context.Context) (interface{}, error) {
		builds++

		return builds, nil
	}

	val, hit, err := rt.Get(ctx, "product:id:1", 600*time.Second, build)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, val)

	val, hit, err = rt.Get(ctx, "product:id:1", 600*time.Second, build)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, val)

	clock.Advance(601 * time.Second)

	val, hit, err = rt.Get(ctx, "product:id:1", 600*time.Second, build)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, val)

	assert.Equal(t, 2, st.Int(cache.MetricBuild))
}

func TestReadThrough_Get_failed(t *testing.T) {
	ctx := context.Background()
	st := &stats.TrackerMock{}

	store := cache.NewMemory(cache.Config{SweepInterval: -1})
	defer store.Close()

	rt := cache.NewReadThrough(store, cache.ReadThroughConfig{Name: "products", Stats: st})
	errUpstream := errors.New("upstream unavailable")

	val, hit, err := rt.Get(ctx, "k", time.Minute, func(ctx context.Context) (interface{}, error) {
		return nil, errUpstream
	})
	assert.Nil(t, val)
	assert.False(t, hit)
	assert.True(t, errors.Is(err, errUpstream))

	_, found := store.Get(ctx, "k")
	assert.False(t, found, "failed build is not cached")
	assert.Equal(t, 1, st.Int(cache.MetricFailed))

	val, hit, err = rt.Get(ctx, "k", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ok", val)
}
