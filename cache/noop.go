package cache

import (
	"context"
	"time"
)

// NoOp is a Store stub, it never finds anything.
type NoOp struct{}

var _ Store = NoOp{}

// Get does not find anything.
func (NoOp) Get(ctx context.Context, key string) (interface{}, bool) {
	return nil, false
}

// Set discards value.
func (NoOp) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {}

// Delete does nothing.
func (NoOp) Delete(ctx context.Context, key string) {}

// DeleteAll does nothing.
func (NoOp) DeleteAll(ctx context.Context) {}

// Len is always zero.
func (NoOp) Len() int {
	return 0
}
