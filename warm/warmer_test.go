package warm_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/elinofoods/storefront/cache"
	"github.com/elinofoods/storefront/warm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := warm.New(cache.NoOp{}, warm.Config{})
	assert.Error(t, err, "jobs required")

	job := warm.Job{Name: "j", Key: "k", TTL: time.Minute, Build: func(ctx context.Context) (interface{}, error) {
		return 1, nil
	}}

	_, err = warm.New(cache.NoOp{}, warm.Config{Schedule: "not a schedule"}, job)
	assert.Error(t, err)

	_, err = warm.New(cache.NoOp{}, warm.Config{Schedule: "@every 4m"}, job)
	assert.NoError(t, err)
}

func TestWarmer_RunOnce(t *testing.T) {
	ctx := context.Background()
	st := &stats.TrackerMock{}

	store := cache.NewMemory(cache.Config{SweepInterval: -1})
	defer store.Close()

	w, err := warm.New(store, warm.Config{Stats: st, Logger: ctxd.NoOpLogger{}},
		warm.Job{Name: "a", Key: "a", TTL: time.Minute, Build: func(ctx context.Context) (interface{}, error) {
			return []string{"x"}, nil
		}},
		warm.Job{Name: "b", Key: "b", TTL: time.Minute, Build: func(ctx context.Context) (interface{}, error) {
			return 2, nil
		}},
	)
	require.NoError(t, err)

	require.NoError(t, w.RunOnce(ctx))

	val, found := store.Get(ctx, "a")
	assert.True(t, found)
	assert.Equal(t, []string{"x"}, val)

	val, found = store.Get(ctx, "b")
	assert.True(t, found)
	assert.Equal(t, 2, val)

	assert.Equal(t, 1, st.Int(warm.MetricPass))
	assert.Equal(t, 2, st.Int(warm.MetricJobSuccess))
}

func TestWarmer_RunOnce_failureKeepsValue(t *testing.T) {
	ctx := context.Background()
	logger := &ctxd.LoggerMock{}

	store := cache.NewMemory(cache.Config{SweepInterval: -1})
	defer store.Close()

	store.Set(ctx, "hot", "previous", time.Minute)

	errUpstream := errors.New("upstream unreachable")

	w, err := warm.New(store, warm.Config{Logger: logger},
		warm.Job{Name: "hot", Key: "hot", TTL: time.Minute, Build: func(ctx context.Context) (interface{}, error) {
			return nil, errUpstream
		}},
		warm.Job{Name: "other", Key: "other", TTL: time.Minute, Build: func(ctx context.Context) (interface{}, error) {
			return "fresh", nil
		}},
	)
	require.NoError(t, err)

	err = w.RunOnce(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUpstream))

	val, found := store.Get(ctx, "hot")
	assert.True(t, found)
	assert.Equal(t, "previous", val)

	val, found = store.Get(ctx, "other")
	assert.True(t, found, "failed job does not block others")
	assert.Equal(t, "fresh", val)

	assert.Contains(t, logger.String(), "warm job failed")
}

func TestWarmer_Start(t *testing.T) {
	store := cache.NewMemory(cache.Config{SweepInterval: -1})
	defer store.Close()

	var passes int64

	w, err := warm.New(store, warm.Config{StartupDelay: time.Millisecond, Schedule: "@every 1h"},
		warm.Job{Name: "hot", Key: "hot", TTL: time.Minute, Build: func(ctx context.Context) (interface{}, error) {
			return atomic.AddInt64(&passes, 1), nil
		}},
	)
	require.NoError(t, err)

	task := w.Start(context.Background())

	assert.Eventually(t, func() bool {
		_, found := store.Get(context.Background(), "hot")

		return found
	}, time.Second, time.Millisecond)

	task.Stop()
	task.Stop()

	select {
	case <-task.Done():
	default:
		t.Fatal("task is not done after stop")
	}

	// Next scheduled pass is minutes away.
	assert.Equal(t, int64(1), atomic.LoadInt64(&passes))
}

func TestWarmer_Start_stoppedBeforeDelay(t *testing.T) {
	var passes int64

	w, err := warm.New(cache.NoOp{}, warm.Config{StartupDelay: time.Hour},
		warm.Job{Name: "hot", Key: "hot", TTL: time.Minute, Build: func(ctx context.Context) (interface{}, error) {
			return atomic.AddInt64(&passes, 1), nil
		}},
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	task := w.Start(ctx)

	cancel()
	<-task.Done()

	assert.Equal(t, int64(0), atomic.LoadInt64(&passes))
}
