package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/elinofoods/storefront/cache"
	"github.com/stretchr/testify/assert"
)

func TestNoOp(t *testing.T) {
	ctx := context.Background()
	c := cache.NoOp{}

	c.Set(ctx, "foo", 123, time.Minute)

	v, found := c.Get(ctx, "foo")
	assert.Nil(t, v)
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())

	c.Delete(ctx, "foo")
	c.DeleteAll(ctx)
}
