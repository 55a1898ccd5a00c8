package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cleat-store/internal/broker"
	"cleat-store/internal/cache"
	"cleat-store/internal/config"
	"cleat-store/internal/database"
	"cleat-store/internal/logger"
	"cleat-store/internal/repository"
	"cleat-store/internal/server"
	"cleat-store/internal/telemetry"
	"cleat-store/internal/worker"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func gracefulShutdown(ctx context.Context, apiServer *server.Server, logger *zap.Logger) error {
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")

	// In-flight requests get 30 seconds to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	return nil
}

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Env: cfg.Server.Env, Level: cfg.Server.LogLevel, Service: cfg.Tracing.ServiceName})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting cleat store API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	if cfg.Tracing.Enabled {
		tp, err := telemetry.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("Failed to shutdown tracer", zap.Error(err))
			}
		}()
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	if err := database.RunMigrations(context.Background(), dbService.DB(), log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Confirmations go through Kafka when it is configured, otherwise the
	// worker is called in-process as each order is placed.
	orders := repository.NewOrderRepository(dbService.DB())
	var (
		publisher       broker.Publisher
		notifications   *worker.NotificationWorker
		orderProducer   *broker.Producer
		consumerEnabled bool
	)
	if cfg.Kafka.Enabled {
		orderProducer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders, log)
		publisher = broker.NewEventPublisher(orderProducer)
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders, cfg.Kafka.ConsumerGroup, log)
		notifications = worker.NewNotificationWorker(consumer, orders, log)
		consumerEnabled = true
	} else {
		notifications = worker.NewNotificationWorker(nil, orders, log)
		publisher = broker.NewInlinePublisher(notifications.HandleOrderPlaced)
	}

	srv := server.NewServer(cfg, log, dbService, redisClient, publisher)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return gracefulShutdown(gctx, srv, log)
	})

	if consumerEnabled {
		g.Go(func() error {
			err := notifications.Start(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			if err := orderProducer.Close(); err != nil {
				log.Error("Failed to close order producer", zap.Error(err))
			}
			return notifications.Stop()
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error", zap.Error(err))
	}
	log.Info("Graceful shutdown complete")
}
