package cache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/elinofoods/storefront/cache"
	pca "github.com/patrickmn/go-cache"
)

func Benchmark_Memory(b *testing.B) {
	c := cache.NewMemory()
	defer c.Close()

	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := "oneone" + strconv.Itoa(i%10000)

		if i < 10000 {
			c.Set(ctx, k, 123, time.Minute)
		}

		_, _ = c.Get(ctx, k)
	}
}

func Benchmark_LRU(b *testing.B) {
	c, err := cache.NewLRU()
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := "oneone" + strconv.Itoa(i%10000)

		if i < 10000 {
			c.Set(ctx, k, 123, time.Minute)
		}

		_, _ = c.Get(ctx, k)
	}
}

func Benchmark_Memory_concurrent(b *testing.B) {
	c := cache.NewMemory()
	defer c.Close()

	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		c.Set(ctx, "oneone"+strconv.Itoa(i), 123, time.Minute)
	}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0

		for pb.Next() {
			_, _ = c.Get(ctx, "oneone"+strconv.Itoa(i%10000))
			i++
		}
	})
}

func Benchmark_Patrickmn(b *testing.B) {
	c := pca.New(5*time.Minute, 10*time.Minute)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := "oneone" + strconv.Itoa(i%10000)

		if i < 10000 {
			c.Set(k, 123, time.Minute)
		}

		_, _ = c.Get(k)
	}
}
