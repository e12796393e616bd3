package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bool64/ctxd"
)

// Invalidator drops entries of registered stores on demand.
//
// Invalidations that come sooner than SkipInterval after the previous one are rejected
// with ErrAlreadyInvalidated.
type Invalidator struct {
	// SkipInterval is a minimal delay between two invalidations, default 15s.
	SkipInterval time.Duration

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Now is a clock, time.Now by default.
	Now func() time.Time

	mu      sync.Mutex
	drops   []func(ctx context.Context)
	lastRun time.Time
}

// Add registers functions to call on invalidation, e.g. Store.DeleteAll.
func (i *Invalidator) Add(drop ...func(ctx context.Context)) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.drops = append(i.drops, drop...)
}

// LastRun returns time of the latest successful invalidation, zero if there was none.
func (i *Invalidator) LastRun() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.lastRun
}

// Invalidate calls registered drop functions.
func (i *Invalidator) Invalidate(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.drops) == 0 {
		return ErrNothingToInvalidate
	}

	skip := i.SkipInterval
	if skip == 0 {
		skip = 15 * time.Second
	}

	now := time.Now
	if i.Now != nil {
		now = i.Now
	}

	if !i.lastRun.IsZero() && now().Sub(i.lastRun) < skip {
		return fmt.Errorf("%w at %s, %s did not pass",
			ErrAlreadyInvalidated, i.lastRun.Format(time.RFC3339), skip.String())
	}

	i.lastRun = now()

	for _, drop := range i.drops {
		drop(ctx)
	}

	if i.Logger != nil {
		i.Logger.Important(ctx, "caches invalidated", "count", len(i.drops))
	}

	return nil
}
