package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/orderpulse/notification-service/internal/api"
	"github.com/orderpulse/notification-service/internal/config"
	"github.com/orderpulse/notification-service/internal/consumer"
	"github.com/orderpulse/notification-service/internal/dispatcher"
	"github.com/orderpulse/notification-service/internal/mailer"
	"github.com/orderpulse/notification-service/internal/metrics"
	"github.com/orderpulse/notification-service/internal/ratelimiter"
	"github.com/orderpulse/notification-service/internal/service"
	"github.com/orderpulse/notification-service/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- status store ----
	ctx := context.Background()
	redisClient, err := store.Connect(ctx, cfg.RedisURL, cfg.RedisRetryAttempts, cfg.RedisRetryInterval, cfg.RedisConnectTimeout)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	st := store.NewRedisStore(redisClient)

	// ---- delivery transport ----
	var m mailer.Mailer
	if cfg.SMTPConfigured() {
		smtp, err := mailer.NewSMTPMailer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail, cfg.SendTimeout)
		if err != nil {
			logger.Fatal("failed to build smtp mailer", zap.Error(err))
		}
		m = smtp
		logger.Info("using smtp transport", zap.String("server", cfg.SMTPServer))
	} else {
		m = mailer.NewSimulatedMailer(logger)
		logger.Warn("smtp credentials absent, email sends will be simulated")
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	mx := metrics.New(reg)
	limiter := ratelimiter.New(cfg.SendRateLimit)

	onSent, onFailed := mx.DispatcherHooks()
	disp := dispatcher.New(st, m, limiter, cfg.MaxConcurrentSends, cfg.SendRetryBackoff, logger, dispatcher.MetricHooks{
		OnSent:   onSent,
		OnFailed: onFailed,
	})
	svc := service.NewNotificationService(st, disp, logger)

	// ---- event consumer ----
	// Context for all background goroutines; cancelled on shutdown signal.
	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()

	onConsumed, onMalformed, onReconnect := mx.ConsumerHooks()
	cons := consumer.New(cfg.RabbitMQURL, disp, cfg.ConsumerBackoff, logger, consumer.MetricHooks{
		OnConsumed:  onConsumed,
		OnMalformed: onMalformed,
		OnReconnect: onReconnect,
	})
	go cons.Run(consumerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(svc, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the consumer; its connection closes when Run returns.
	cancelConsumer()

	// 3. Wait for in-flight background deliveries to record their outcome.
	disp.Wait()

	logger.Info("server stopped cleanly")
}
