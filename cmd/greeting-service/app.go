package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"greeter/internal/broker"
	"greeter/internal/config"
	"greeter/internal/constants"
	"greeter/internal/greeting"
	"greeter/internal/logger"
	"greeter/pkg/bootstrap"
	"greeter/pkg/health"
	"greeter/pkg/logging"
	"greeter/pkg/metrics"
	"greeter/pkg/middleware"
	"greeter/pkg/ratelimit"
	"greeter/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redis       *redis.Client
	mongoClient *mongo.Client
	backends    greeting.Backends
	service     *greeting.Service
	router      *gin.Engine
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitTracing(ctx, constants.ServiceNameGreeting); err != nil {
		return err
	}

	metrics.RegisterGreetingMetrics()
	metrics.RegisterHTTPMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initBackend(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s backend: %w", a.Config.Sink.Type, err)
	}

	sink, err := greeting.NewSink(a.Config, a.backends)
	if err != nil {
		return fmt.Errorf("failed to create sink: %w", err)
	}
	a.service = greeting.NewService(sink, a.Logger)

	if a.Config.Consumer.Enabled {
		if err := a.InitConsumer(constants.ServiceNameConsumer); err != nil {
			return err
		}
	}

	a.initRouter(ctx)
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.Config.Server.ReadTimeout(),
		WriteTimeout: a.Config.Server.WriteTimeout(),
	}

	return nil
}

// initBackend opens only the connection the configured sink needs.
func (a *App) initBackend(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, constants.StartupTimeout)
	defer cancel()

	switch a.Config.Sink.Type {
	case constants.SinkTypePostgres:
		db, err := a.dbConnector.InitPostgreSQL(initCtx)
		if err != nil {
			return err
		}
		a.db = db
		a.backends.DB = db
	case constants.SinkTypeRedis:
		rdb, err := a.dbConnector.InitRedis(initCtx)
		if err != nil {
			return err
		}
		a.redis = rdb
		a.backends.Redis = rdb
	case constants.SinkTypeMongoDB:
		db, client, err := a.dbConnector.InitMongoDB(initCtx)
		if err != nil {
			return err
		}
		a.mongoClient = client
		a.backends.Mongo = db
	case constants.SinkTypeKafka:
		if err := a.InitPublisher(initCtx); err != nil {
			return err
		}
		a.backends.Publisher = a.Publisher
	}
	return nil
}

func (a *App) initRouter(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(constants.ServiceNameGreeting)...)
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.Logger))

	if rl := a.Config.Server.RateLimit; rl.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             rl.RPS,
			Burst:           rl.Burst,
			CleanupInterval: time.Duration(rl.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(rl.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(ctx, rateLimitConfig))
		a.Logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	greeting.NewHandler(a.service, a.Logger).RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewSinkChecker(a.service))
	if a.Consumer != nil {
		healthRegistry.Register(broker.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	}
	router.GET("/health", health.Handler(healthRegistry))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(gCtx, "Server listening", "port", a.Config.Server.Port, "sink", a.service.Name())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.Consumer != nil {
		listener := greeting.NewListener(a.Logger)
		g.Go(func() error {
			return a.Consumer.Consume(gCtx, listener.HandlerFunc())
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceNameGreeting)

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			serverCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(serverCtx); err != nil {
				errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redis, a.db, a.mongoClient)...)
		return errs
	}

	return a.Base.Shutdown(shutdownCtx, additionalShutdown)
}
