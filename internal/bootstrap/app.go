package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"daily-diet/internal/app"
	"daily-diet/internal/cache"
	"daily-diet/internal/config"
	"daily-diet/internal/platform/database"
	"daily-diet/internal/platform/logging"
	"daily-diet/internal/platform/metrics"
	rabbitmqClient "daily-diet/internal/platform/rabbitmq"
	redisClient "daily-diet/internal/platform/redis"
	"daily-diet/internal/repository"
	"daily-diet/internal/repository/memory"
	"daily-diet/internal/worker"
)

type App struct {
	Config *config.Config
	Logger zerolog.Logger

	// DB is nil for the memory driver, Redis and MQConn are nil when disabled.
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	EventWorker *worker.MealEventWorker

	Sessions app.SessionStore
	Meals    app.MealStore
	Events   worker.MealEventStore
	EventLog app.MealEventLog

	Resolver       *app.SessionResolver
	MealService    *app.MealService
	Activity       *app.ActivityService
	MetricsHandler http.Handler

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger := logging.New(cfg.App.LogLevel, cfg.App.Env)
	return Build(ctx, cfg, logger)
}

// Build connects every enabled dependency described by cfg. On failure the resources opened so
// far are released.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *App, err error) {
	a := &App{
		Config:         cfg,
		Logger:         logger,
		MetricsHandler: metrics.Handler(),
		StartedAt:      time.Now(),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	var metricsCache app.MetricsCache
	if cfg.Redis.Enabled {
		a.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		metricsCache = cache.NewMetricsCache(a.Redis, time.Duration(cfg.Redis.MetricsTTLSeconds)*time.Second)
	}

	var publisher app.MealEventPublisher
	if cfg.RabbitMQ.Enabled {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MealEventQueue)
		if err != nil {
			return nil, err
		}
		publisher = rabbitmqClient.NewMealEventPublisher(a.MQConn, cfg.RabbitMQ.MealEventQueue)

		a.EventWorker = worker.NewMealEventWorker(a.MQConn, a.Events, cfg.RabbitMQ.MealEventQueue, logger)
		if err := a.EventWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start meal event worker failed: %w", err)
		}
	}

	a.Resolver = app.NewSessionResolver(a.Sessions)
	a.MealService = app.NewMealService(a.Resolver, a.Meals, metricsCache, publisher, logger)
	a.Activity = app.NewActivityService(a.EventLog)

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Bool("redis", cfg.Redis.Enabled).
		Bool("rabbitmq", cfg.RabbitMQ.Enabled).
		Msg("application bootstrapped")
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.Config.Database.Driver == config.DriverMemory {
		store := memory.NewStore()
		a.Sessions = store
		a.Meals = store
		a.Events = store
		a.EventLog = store
		return nil
	}

	db, err := database.Open(ctx, a.Config.Database.Driver, a.Config.DSN())
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		return err
	}

	a.Sessions = repository.NewSessionRepository(db)
	a.Meals = repository.NewMealRepository(db)
	events := repository.NewMealEventRepository(db)
	a.Events = events
	a.EventLog = events
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
