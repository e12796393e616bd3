package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// expiredDeleter is implemented by stores sharing the background jobs of trait.
type expiredDeleter interface {
	deleteExpiredBefore(boundary time.Time) int
	Len() int
}

// trait holds configuration and background jobs common to store implementations.
type trait struct {
	config Config
	log    ctxd.Logger
	stat   stats.Tracker

	closed    chan struct{}
	closeOnce sync.Once
	store     expiredDeleter
}

func newTrait(store expiredDeleter, cfg ...Config) *trait {
	config := Config{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	config = config.withDefaults()

	t := &trait{
		config: config,
		log:    config.Logger,
		stat:   config.Stats,
		closed: make(chan struct{}),
		store:  store,
	}

	if t.stat != nil {
		go t.reportItemsCount()
	}

	if config.SweepInterval > 0 {
		go t.sweeper()
	}

	return t
}

func (t *trait) now() time.Time {
	return t.config.Now()
}

// Close stops background jobs, stored entries stay readable.
func (t *trait) Close() {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
}

// DeleteExpired removes all expired entries and returns their count.
func (t *trait) DeleteExpired(ctx context.Context) int {
	n := t.store.deleteExpiredBefore(t.now())

	if t.log != nil && n > 0 {
		t.log.Debug(ctx, "deleted expired cache entries",
			"name", t.config.Name,
			"count", n,
		)
	}

	if t.stat != nil {
		t.stat.Add(ctx, MetricSwept, float64(n), "name", t.config.Name)
	}

	return n
}

func (t *trait) sweeper() {
	ticker := time.NewTicker(t.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.DeleteExpired(context.Background())
		case <-t.closed:
			return
		}
	}
}

func (t *trait) reportItemsCount() {
	ticker := time.NewTicker(t.config.ItemsCountReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.closed:
			return
		case <-ticker.C:
			count := t.store.Len()

			if t.log != nil {
				t.log.Debug(context.Background(), "cache items count",
					"name", t.config.Name,
					"count", count,
				)
			}

			t.stat.Set(context.Background(), MetricItems, float64(count), "name", t.config.Name)
		}
	}
}

func (t *trait) logRead(ctx context.Context, key string, metric string, msg string) {
	if t.log != nil {
		t.log.Debug(ctx, msg,
			"name", t.config.Name,
			"key", key)
	}

	if t.stat != nil {
		t.stat.Add(ctx, metric, 1, "name", t.config.Name)
	}
}

func (t *trait) logWrite(ctx context.Context, key string, ttl time.Duration) {
	if t.log != nil {
		t.log.Debug(ctx, "wrote to cache", "name", t.config.Name, "key", key, "ttl", ttl)
	}

	if t.stat != nil {
		t.stat.Add(ctx, MetricWrite, 1, "name", t.config.Name)
	}
}

// ttl resolves DefaultTTL to configured TimeToLive.
func (t *trait) ttl(ttl time.Duration) time.Duration {
	if ttl == DefaultTTL {
		return t.config.TimeToLive
	}

	return ttl
}

func (t *trait) reportDeleteAll(ctx context.Context, count int, start time.Time) {
	if t.log != nil {
		t.log.Important(ctx, "deleted all entries in cache",
			"name", t.config.Name,
			"elapsed", t.now().Sub(start).String(),
			"count", count,
		)
	}

	if t.stat != nil {
		t.stat.Add(ctx, MetricDelete, float64(count), "name", t.config.Name)
	}
}
