package cache

import (
	"context"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// ReadThroughConfig is optional configuration for NewReadThrough.
type ReadThroughConfig struct {
	// Name is added to logs and stats.
	Name string

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker
}

// ReadThrough serves values from Store and builds missing ones.
//
// Concurrent misses of the same key build the value independently and the last
// completed write wins, same as writes of background warmers.
type ReadThrough struct {
	store  Store
	config ReadThroughConfig
	log    ctxd.Logger
	stat   stats.Tracker
}

// NewReadThrough creates a ReadThrough instance on top of a store.
func NewReadThrough(store Store, config ReadThroughConfig) *ReadThrough {
	rt := &ReadThrough{
		store:  store,
		config: config,
	}

	rt.log = config.Logger
	if rt.log == nil {
		rt.log = ctxd.NoOpLogger{}
	}

	rt.stat = config.Stats
	if rt.stat == nil {
		rt.stat = stats.NoOp{}
	}

	return rt
}

// Store returns underlying store.
func (rt *ReadThrough) Store() Store {
	return rt.store
}

// Get returns cached value or the result of build function.
//
// The hit flag is true when value was served from cache. Build errors are
// returned as is and nothing is written to cache.
func (rt *ReadThrough) Get(
	ctx context.Context,
	key string,
	ttl time.Duration,
	buildFunc func(ctx context.Context) (interface{}, error),
) (value interface{}, hit bool, err error) {
	if value, found := rt.store.Get(ctx, key); found {
		return value, true, nil
	}

	value, err = rt.doBuild(ctx, key, buildFunc)
	if err != nil {
		return nil, false, err
	}

	rt.store.Set(ctx, key, value, ttl)

	return value, false, nil
}

func (rt *ReadThrough) doBuild(
	ctx context.Context,
	key string,
	buildFunc func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	defer func() {
		rt.stat.Add(ctx, MetricBuild, 1, "name", rt.config.Name)
	}()

	rt.log.Debug(ctx, "building cache value", "name", rt.config.Name, "key", key)

	value, err := buildFunc(ctx)
	if err != nil {
		rt.stat.Add(ctx, MetricFailed, 1, "name", rt.config.Name)

		return nil, ctxd.WrapError(ctx, err, "failed to build cache value",
			"name", rt.config.Name,
			"key", key)
	}

	return value, nil
}
