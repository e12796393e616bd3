// Package main runs storefront API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bool64/ctxd"
	"github.com/elinofoods/storefront/cache"
	"github.com/elinofoods/storefront/internal/catalog"
	"github.com/elinofoods/storefront/internal/config"
	"github.com/elinofoods/storefront/internal/customers"
	"github.com/elinofoods/storefront/internal/ingredients"
	"github.com/elinofoods/storefront/internal/logging"
	"github.com/elinofoods/storefront/internal/metrics"
	"github.com/elinofoods/storefront/internal/orders"
	"github.com/elinofoods/storefront/internal/reviews"
	"github.com/elinofoods/storefront/internal/server"
	"github.com/elinofoods/storefront/internal/shopify"
	"github.com/elinofoods/storefront/warm"
	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cmd := &cli.Command{
		Name:   "storefront",
		Usage:  "backend API of Elino Foods storefront",
		Flags:  config.Flags(),
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Fields: []interface{}{"app", "storefront"}})
	if err != nil {
		return err
	}

	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := metrics.NewTracker("storefront")

	store, err := newStore(cfg, logger, tracker)
	if err != nil {
		return err
	}

	if c, ok := store.(interface{ Close() }); ok {
		defer c.Close()
	}

	upstream, err := shopify.New(shopify.Config{
		Domain:      cfg.ShopifyDomain,
		AccessToken: cfg.ShopifyAccessToken,
		APIVersion:  cfg.ShopifyAPIVersion,
		Timeout:     cfg.UpstreamTimeout,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	readThrough := func(name string) *cache.ReadThrough {
		return cache.NewReadThrough(store, cache.ReadThroughConfig{Name: name, Logger: logger, Stats: tracker})
	}

	cat := catalog.New(upstream, readThrough("products"), logger)

	invalidator := &cache.Invalidator{Logger: logger}
	invalidator.Add(store.DeleteAll)

	srvCfg := server.Config{
		Catalog:       cat,
		Orders:        orders.NewService(upstream, logger),
		Customers:     customers.NewService(upstream, logger),
		Cache:         store,
		CacheMode:     cfg.CacheMode,
		Invalidator:   invalidator,
		Metrics:       tracker.Handler(),
		Logger:        logger,
		Stats:         tracker,
		AllowedOrigin: cfg.FrontendURL,
	}

	if cfg.MongoURI != "" {
		client, err := connectMongo(ctx, cfg, logger)
		if err != nil {
			return err
		}

		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := client.Disconnect(dctx); err != nil {
				logger.Error(dctx, "failed to disconnect from MongoDB", "error", err)
			}
		}()

		db := client.Database(cfg.MongoDB)

		repo := reviews.NewMongoRepository(db.Collection(reviews.CollectionName))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}

		ing := ingredients.NewStore(db.Collection(ingredients.CollectionName), logger)
		if err := ing.EnsureIndexes(ctx); err != nil {
			return err
		}

		srvCfg.Reviews = reviews.NewService(repo, reviews.ServiceConfig{
			Logger:  logger,
			Ratings: readThrough("ratings"),
		})
		srvCfg.Ingredients = ing
	} else {
		logger.Warn(ctx, "MONGO_URI is not set, reviews and ingredients are disabled")
	}

	warmer, err := warm.New(store, warm.Config{
		Schedule:     cfg.PrewarmSchedule,
		StartupDelay: cfg.PrewarmDelay,
		Logger:       logger,
		Stats:        tracker,
	}, cat.QuickListJob())
	if err != nil {
		return err
	}

	task := warmer.Start(ctx)
	defer task.Stop()

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           server.New(srvCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Important(gctx, "starting server", "port", cfg.Port, "cache", cfg.CacheMode)

		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Important(context.Background(), "shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return httpServer.Shutdown(sctx)
	})

	return g.Wait()
}

func newStore(cfg config.Config, logger ctxd.Logger, tracker *metrics.Tracker) (cache.Store, error) {
	c := cache.Config{
		Logger:        logger,
		Stats:         tracker,
		Name:          "storefront",
		SweepInterval: cfg.CacheSweepInterval,
		Capacity:      cfg.CacheCapacity,
	}

	switch cfg.CacheMode {
	case config.CacheLRU:
		lru, err := cache.NewLRU(c)
		if err != nil {
			return nil, err
		}

		return lru, nil
	case config.CacheNone:
		return cache.NoOp{}, nil
	default:
		return cache.NewMemory(c), nil
	}
}

func connectMongo(ctx context.Context, cfg config.Config, logger ctxd.Logger) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, cfg.UpstreamTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to connect to MongoDB")
	}

	if err := client.Ping(cctx, nil); err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to ping MongoDB")
	}

	logger.Important(ctx, "connected to MongoDB", "db", cfg.MongoDB)

	return client, nil
}
