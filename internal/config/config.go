// Package config defines application settings read from flags and environment.
package config

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// Cache modes.
const (
	CacheMemory = "memory"
	CacheLRU    = "lru"
	CacheNone   = "none"
)

// Config is application settings.
type Config struct {
	Port int

	ShopifyDomain      string
	ShopifyAccessToken string
	ShopifyAPIVersion  string
	UpstreamTimeout    time.Duration

	MongoURI string
	MongoDB  string

	CacheMode          string
	CacheCapacity      int
	CacheSweepInterval time.Duration

	PrewarmSchedule string
	PrewarmDelay    time.Duration

	LogLevel string

	// FrontendURL is an allowed CORS origin.
	FrontendURL string
}

// Flag names.
const (
	flagPort            = "port"
	flagShopifyDomain   = "shopify-domain"
	flagShopifyToken    = "shopify-token"
	flagShopifyVersion  = "shopify-api-version"
	flagUpstreamTimeout = "upstream-timeout"
	flagMongoURI        = "mongo-uri"
	flagMongoDB         = "mongo-db"
	flagCacheMode       = "cache-mode"
	flagCacheCapacity   = "cache-capacity"
	flagCacheSweep      = "cache-sweep-interval"
	flagPrewarmSchedule = "prewarm-schedule"
	flagPrewarmDelay    = "prewarm-delay"
	flagLogLevel        = "log-level"
	flagFrontendURL     = "frontend-url"
)

// Flags returns command flags with environment variable sources.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    flagPort,
			Usage:   "HTTP listen port",
			Value:   3000,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    flagShopifyDomain,
			Usage:   "shop domain, e.g. example.myshopify.com",
			Sources: cli.EnvVars("SHOPIFY_DOMAIN"),
		},
		&cli.StringFlag{
			Name:    flagShopifyToken,
			Usage:   "Admin API access token",
			Sources: cli.EnvVars("ADMIN_API"),
		},
		&cli.StringFlag{
			Name:    flagShopifyVersion,
			Usage:   "Admin API version",
			Value:   "2024-10",
			Sources: cli.EnvVars("SHOPIFY_API_VERSION"),
		},
		&cli.DurationFlag{
			Name:    flagUpstreamTimeout,
			Usage:   "timeout of a single upstream request",
			Value:   30 * time.Second,
			Sources: cli.EnvVars("UPSTREAM_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    flagMongoURI,
			Usage:   "MongoDB connection string, reviews and ingredients are disabled when empty",
			Sources: cli.EnvVars("MONGO_URI"),
		},
		&cli.StringFlag{
			Name:    flagMongoDB,
			Usage:   "MongoDB database name",
			Value:   "storefront",
			Sources: cli.EnvVars("MONGO_DB"),
		},
		&cli.StringFlag{
			Name:    flagCacheMode,
			Usage:   "cache store: memory (unbounded), lru (bounded by capacity) or none",
			Value:   CacheMemory,
			Sources: cli.EnvVars("CACHE_MODE"),
		},
		&cli.IntFlag{
			Name:    flagCacheCapacity,
			Usage:   "maximum number of entries in lru mode",
			Value:   10000,
			Sources: cli.EnvVars("CACHE_CAPACITY"),
		},
		&cli.DurationFlag{
			Name:    flagCacheSweep,
			Usage:   "interval of expired entries sweeping, negative disables",
			Value:   time.Minute,
			Sources: cli.EnvVars("CACHE_SWEEP_INTERVAL"),
		},
		&cli.StringFlag{
			Name:    flagPrewarmSchedule,
			Usage:   "cron schedule of cache pre-warming",
			Value:   "*/4 * * * *",
			Sources: cli.EnvVars("PREWARM_SCHEDULE"),
		},
		&cli.DurationFlag{
			Name:    flagPrewarmDelay,
			Usage:   "delay of the first pre-warming pass after start",
			Value:   5 * time.Second,
			Sources: cli.EnvVars("PREWARM_DELAY"),
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "minimal log level: debug, info, warn, error",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    flagFrontendURL,
			Usage:   "origin allowed to call API from browser",
			Value:   "*",
			Sources: cli.EnvVars("FRONTEND_URL"),
		},
	}
}

// FromCommand reads Config from parsed command.
func FromCommand(cmd *cli.Command) (Config, error) {
	c := Config{
		Port:               cmd.Int(flagPort),
		ShopifyDomain:      cmd.String(flagShopifyDomain),
		ShopifyAccessToken: cmd.String(flagShopifyToken),
		ShopifyAPIVersion:  cmd.String(flagShopifyVersion),
		UpstreamTimeout:    cmd.Duration(flagUpstreamTimeout),
		MongoURI:           cmd.String(flagMongoURI),
		MongoDB:            cmd.String(flagMongoDB),
		CacheMode:          cmd.String(flagCacheMode),
		CacheCapacity:      cmd.Int(flagCacheCapacity),
		CacheSweepInterval: cmd.Duration(flagCacheSweep),
		PrewarmSchedule:    cmd.String(flagPrewarmSchedule),
		PrewarmDelay:       cmd.Duration(flagPrewarmDelay),
		LogLevel:           cmd.String(flagLogLevel),
		FrontendURL:        cmd.String(flagFrontendURL),
	}

	return c, c.Validate()
}

// Validate checks settings consistency.
func (c Config) Validate() error {
	if c.ShopifyDomain == "" {
		return fmt.Errorf("shop domain is required, set SHOPIFY_DOMAIN or --%s", flagShopifyDomain)
	}

	switch c.CacheMode {
	case CacheMemory, CacheNone:
	case CacheLRU:
		if c.CacheCapacity <= 0 {
			return fmt.Errorf("cache capacity must be positive in %s mode", CacheLRU)
		}
	default:
		return fmt.Errorf("unknown cache mode %q", c.CacheMode)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	return nil
}
