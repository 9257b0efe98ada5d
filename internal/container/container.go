package container

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/client/internal/cache"
	"storefront/client/internal/client"
	"storefront/client/internal/config"
	"storefront/client/internal/proxy"
	"storefront/client/internal/queue"
	"storefront/client/internal/repository"
	"storefront/client/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Client     client.StorefrontClient
	Cache      cache.CandidateCache
	Queue      queue.Queue
	Repository repository.CommitRepository

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container. Redis and Postgres are only connected when enabled.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier := proxy.NewProxySupplier(ctx, cfg.Storefront.Proxies,
		strings.TrimRight(cfg.Storefront.BaseURL, "/")+"/health")

	container.Client = client.NewStorefrontClient(cfg.Storefront, proxySupplier)

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		container.redis = rdb

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		container.Cache = cache.NewRedisCandidateCache(rdb, time.Duration(cfg.Cart.CandidateCacheTTL)*time.Second)

		if cfg.Cart.PublishReports {
			redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
			if err != nil {
				container.Close()
				return nil, err
			}
			container.Queue = redisQueue
		}
	}

	if cfg.Database.Enabled && cfg.Cart.RecordCommits {
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		container.db = db

		if err := repository.EnsureSchema(ctx, db); err != nil {
			container.Close()
			return nil, err
		}
		log.Info("✅ Connected to Postgres successfully")
		container.Repository = repository.NewCommitRepository(db)
	}

	container.Service = service.NewService(
		container.Client,
		container.Cache,
		container.Queue,
		container.Repository,
		service.Options{
			Currency:    cfg.Cart.Currency,
			UserID:      cfg.Storefront.UserID,
			BaseURL:     cfg.Storefront.BaseURL,
			GroupName:   cfg.Redis.ConsumerGroup,
			MinIdleTime: time.Duration(cfg.Redis.MinIdleTime) * time.Second,
		},
	)

	return container, nil
}

// RunNotifier runs the commit report consumers until ctx is cancelled
func (c *Container) RunNotifier(ctx context.Context, workers int) error {
	if c.Queue == nil {
		return fmt.Errorf("notifier requires redis.enabled and cart.publish_reports")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Service.RunNotifier(ctx, workers)
	})
	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis: %w", err)
		}
	}
	return nil
}
