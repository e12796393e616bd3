package cache

import (
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// Config controls in-memory cache instance.
type Config struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is cache instance name, used in stats and logging.
	Name string

	// TimeToLive is delay before entry expiration when DefaultTTL is used, default 5m.
	TimeToLive time.Duration

	// SweepInterval is delay between two consecutive removals of expired entries, default 1m.
	// Use -1 to disable background sweeping, lazy expiry on read still applies.
	SweepInterval time.Duration

	// ItemsCountReportInterval is items count metric report interval, default 1m.
	ItemsCountReportInterval time.Duration

	// Capacity is the maximum number of entries for bounded stores, default 10000.
	Capacity int

	// Now is a clock, time.Now by default.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.TimeToLive == 0 {
		c.TimeToLive = 5 * time.Minute
	}

	if c.SweepInterval == 0 {
		c.SweepInterval = time.Minute
	}

	if c.ItemsCountReportInterval == 0 {
		c.ItemsCountReportInterval = time.Minute
	}

	if c.Capacity == 0 {
		c.Capacity = 10000
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	return c
}
