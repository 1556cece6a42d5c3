// Package main запускает HTTP-сервер маркетплейса ysrap-etpe.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/ysrap-etpe/internal/broker"
	"github.com/mmeshcher/ysrap-etpe/internal/config"
	"github.com/mmeshcher/ysrap-etpe/internal/handler"
	"github.com/mmeshcher/ysrap-etpe/internal/middleware"
	"github.com/mmeshcher/ysrap-etpe/internal/ratelimit"
	"github.com/mmeshcher/ysrap-etpe/internal/repository"
	"github.com/mmeshcher/ysrap-etpe/internal/service"
	"github.com/mmeshcher/ysrap-etpe/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func newLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Production())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("application terminated with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	decimal.MarshalJSONWithoutQuotes = true

	if cfg.JaegerEndpoint != "" {
		tp, err := tracing.InitTracer(cfg.JaegerEndpoint)
		if err != nil {
			return fmt.Errorf("tracer initialization: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("tracer shutdown error", zap.Error(err))
			}
		}()
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("database initialization: %w", err)
	}

	var events broker.Publisher = broker.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka producer close error", zap.Error(err))
			}
		}()
		events = broker.NewEventPublisher(producer)
		logger.Info("publishing order events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	svc := service.NewService(repo, events, logger)
	defer svc.Close()

	limiter, closeLimiter, err := newLimiter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	auth, err := middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.TokenTTL, svc, logger)
	if err != nil {
		return fmt.Errorf("auth initialization: %w", err)
	}

	h := handler.NewHandler(svc, logger, auth)
	if cfg.AdminAPIKey == "" {
		logger.Warn("ADMIN_API_KEY is not set, admin routes are disabled")
	}

	server := &http.Server{
		Addr: cfg.RunAddress,
		Handler: h.SetupRouter(handler.RouterOptions{
			Limiter:        limiter,
			AdminKey:       cfg.AdminAPIKey,
			MetricsEnabled: cfg.MetricsEnabled,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting ysrap-etpe server", zap.String("addr", cfg.RunAddress), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}

// newLimiter выбирает хранилище счётчиков: Redis, если он настроен, иначе память процесса.
func newLimiter(cfg *config.Config, logger *zap.Logger) (middleware.Limiter, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Info("using in-memory rate limiter")
		return ratelimit.NewMemory(cfg.RateLimit.Requests, cfg.RateLimit.Window), func() {}, nil
	}

	rdb, err := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("redis initialization: %w", err)
	}
	logger.Info("using redis rate limiter", zap.String("addr", cfg.Redis.Addr))

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("redis close error", zap.Error(err))
		}
	}
	return ratelimit.NewRedis(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window), closeFn, nil
}
