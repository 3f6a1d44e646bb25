package di

import (
	"context"
	"fmt"
	"time"

	"guestbook/backend/internal/repository"
	"guestbook/backend/internal/service"
	"guestbook/backend/pkg/cache"
	"guestbook/backend/pkg/config"
	"guestbook/backend/pkg/database"
	"guestbook/backend/pkg/health"
	"guestbook/backend/pkg/logger"
	"guestbook/backend/pkg/metrics"
	"guestbook/backend/pkg/resilience"
)

// Container holds all the dependencies for the application
type Container struct {
	Config           *config.Config
	Logger           *logger.Logger
	Metrics          *metrics.Metrics
	Pools            *database.Lazy
	Cache            cache.EntryCache
	EntryRepository  repository.EntryRepository
	GuestbookService *service.GuestbookService
	Health           *health.Checker

	closers []func()
}

// Config holds the configuration for the container. Nil overrides fall back
// to the production wiring.
type Config struct {
	App    *config.Config
	Logger *logger.Logger

	// Opener builds the connection pool; defaults to database.Open with App.Database
	Opener database.Opener
	// Repository replaces the gorm repository
	Repository repository.EntryRepository
	// Cache replaces the cache selected by App.Cache
	Cache cache.EntryCache
}

// New creates a new dependency injection container. Nothing here touches
// the database: the pool is built by the first request that needs it.
func New(cfg Config) (*Container, error) {
	if cfg.App == nil {
		cfg.App = config.Get()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetGlobal()
	}

	c := &Container{
		Config:  cfg.App,
		Logger:  cfg.Logger,
		Metrics: metrics.New(),
	}

	opener := cfg.Opener
	if opener == nil {
		opener = poolOpener(cfg.App, cfg.Logger)
	}
	c.Pools = database.NewLazy(opener, func(pool *database.Pool) {
		c.Metrics.ObservePool(pool.SQL())
	})
	c.closers = append(c.closers, c.Pools.Close)

	c.Health = health.NewChecker(c.Logger, 30*time.Second)
	c.Health.RegisterDatabaseCheck(func() (health.Pinger, bool) {
		pool, ok := c.Pools.Peek()
		if !ok {
			return nil, false
		}
		return pool, true
	})

	c.Cache = cfg.Cache
	if c.Cache == nil {
		entryCache, err := c.newCache()
		if err != nil {
			return nil, err
		}
		c.Cache = entryCache
	}

	c.EntryRepository = cfg.Repository
	if c.EntryRepository == nil {
		c.EntryRepository = repository.NewGormEntryRepository(c.Pools)
	}

	c.GuestbookService = service.NewGuestbookService(c.EntryRepository, c.Cache, c.Metrics, c.Logger)

	return c, nil
}

func (c *Container) newCache() (cache.EntryCache, error) {
	settings := c.Config.Cache
	switch {
	case !settings.Enabled:
		return cache.Noop{}, nil
	case settings.RedisURL != "":
		redisCache, err := cache.NewRedisCache(settings.RedisURL, settings.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		c.Health.RegisterCheck("cache", func(ctx context.Context) (health.Status, string, error) {
			if err := redisCache.Ping(ctx); err != nil {
				return health.StatusDown, "Redis unreachable", err
			}
			return health.StatusUp, "Redis is responding", nil
		})
		c.closers = append(c.closers, func() { redisCache.Close() })

		settings := resilience.DefaultSettings("redis")
		settings.OnStateChange = func(name string, _, to resilience.State) {
			c.Metrics.RecordBreakerState(name, string(to))
		}
		return cache.NewGuarded(redisCache, resilience.NewBreaker(settings, c.Logger)), nil
	default:
		return cache.NewMemoryCache(settings.TTL), nil
	}
}

// Close releases the pool and any cache connection
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// poolOpener builds the production pool from the application config
func poolOpener(cfg *config.Config, log *logger.Logger) database.Opener {
	return func(ctx context.Context) (*database.Pool, error) {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		pool, err := database.Open(ctx, database.Config{
			URL:             cfg.Database.URL,
			SSLMode:         cfg.Database.SSLMode,
			MinConns:        cfg.Database.MinConns,
			MaxConns:        cfg.Database.MaxConns,
			ConnectTimeout:  cfg.Database.ConnectTimeout,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			Debug:           !cfg.IsProduction(),
		})
		if err != nil {
			log.LogError(err, "Failed to initialize database pool")
			return nil, err
		}

		if cfg.Database.AutoMigrate {
			if err := pool.Migrate(ctx); err != nil {
				pool.Close()
				log.LogError(err, "Failed to migrate database")
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		log.Info("Database pool initialized",
			"min_conns", cfg.Database.MinConns,
			"max_conns", cfg.Database.MaxConns,
		)
		return pool, nil
	}
}
