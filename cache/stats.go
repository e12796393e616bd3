package cache

// Metric names reported to stats.Tracker, labeled with cache "name".
const (
	MetricHit     = "cache_hit"
	MetricMiss    = "cache_miss"
	MetricExpired = "cache_expired"
	MetricWrite   = "cache_write"
	MetricDelete  = "cache_delete"
	MetricItems   = "cache_items"
	MetricSwept   = "cache_swept"
	MetricEvict   = "cache_evict"
	MetricBuild   = "cache_build"
	MetricFailed  = "cache_build_failed"
)
