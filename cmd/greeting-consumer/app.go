package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"greeter/internal/broker"
	"greeter/internal/config"
	"greeter/internal/constants"
	"greeter/internal/greeting"
	"greeter/internal/logger"
	"greeter/pkg/bootstrap"
	"greeter/pkg/health"
	"greeter/pkg/metrics"
	"greeter/pkg/middleware"
)

// App runs the consumer loop plus a small HTTP server for health and metrics.
type App struct {
	*bootstrap.Base
	server *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base: bootstrap.NewBase(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := config.ValidateConsumer(a.Config); err != nil {
		return err
	}

	if err := a.InitTracing(ctx, constants.ServiceNameConsumer); err != nil {
		return err
	}

	metrics.RegisterGreetingMetrics()
	metrics.RegisterBrokerMetrics()

	if err := a.InitConsumer(constants.ServiceNameConsumer); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(a.Logger))

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(broker.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	router.GET("/health", health.Handler(healthRegistry))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: router,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(gCtx, "Health server listening", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	listener := greeting.NewListener(a.Logger)
	g.Go(func() error {
		if err := a.Consumer.Consume(gCtx, listener.HandlerFunc()); err != nil {
			return err
		}
		if gCtx.Err() == nil {
			return fmt.Errorf("consumer stopped before shutdown")
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.Base.Shutdown(ctx, func(ctx context.Context) []error {
		if a.server == nil {
			return nil
		}
		serverCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(serverCtx); err != nil {
			return []error{fmt.Errorf("server shutdown error: %w", err)}
		}
		return nil
	})
}
