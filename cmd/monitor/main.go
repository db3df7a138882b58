package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/kursadbilgin/fare-alert-engine/internal/config"
	"github.com/kursadbilgin/fare-alert-engine/internal/delivery"
	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/kursadbilgin/fare-alert-engine/internal/handler"
	"github.com/kursadbilgin/fare-alert-engine/internal/infra/postgresql"
	"github.com/kursadbilgin/fare-alert-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/fare-alert-engine/internal/infra/redis"
	"github.com/kursadbilgin/fare-alert-engine/internal/observability"
	"github.com/kursadbilgin/fare-alert-engine/internal/pricing"
	"github.com/kursadbilgin/fare-alert-engine/internal/ratelimit"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"github.com/kursadbilgin/fare-alert-engine/internal/service"
	"github.com/kursadbilgin/fare-alert-engine/internal/transport"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Error("fare-alert-engine stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN, postgresql.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime(),
	})
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}
	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	limits := ratelimit.Limits{
		domain.ChannelEmail: cfg.EmailRateLimit,
		domain.ChannelPush:  cfg.PushRateLimit,
	}
	var rdb *goredis.Client
	var limiter ratelimit.Limiter
	switch cfg.RateLimitBackend {
	case config.RateLimitBackendRedis:
		rdb, err = infraredis.NewRedis(ctx, cfg.RedisURL, cfg.RedisPoolSize)
		if err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		defer rdb.Close()

		limiter, err = infraredis.NewRedisRateLimiter(rdb, limits, cfg.RateLimitWindow())
		if err != nil {
			return fmt.Errorf("redis rate limiter init failed: %w", err)
		}
	default:
		limiter = ratelimit.NewFixedWindow(limits, cfg.RateLimitWindow())
	}

	pricingClient, err := newPricingClient(cfg, logger)
	if err != nil {
		return err
	}

	emailSender, err := delivery.NewSMTPEmailSender(delivery.SMTPConfig{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Sender:   cfg.EmailSender,
		Password: cfg.EmailPassword,
		Timeout:  cfg.SendTimeout(),
	})
	if err != nil {
		return fmt.Errorf("email sender init failed: %w", err)
	}
	if emailSender.Ready() != nil {
		logger.Warn("email credentials not configured, email sends will fail")
	}
	pushSender := delivery.NewFCMPushSender(ctx, cfg.FirebaseCredentialsFile, logger)

	metrics := observability.NewMetrics()

	alerts := repository.NewGormAlertRepo(db)
	priceChecks := repository.NewGormPriceCheckRepo(db)
	notifications := repository.NewGormNotificationRepo(db)
	attempts := repository.NewGormAttemptRepo(db)
	owners := repository.NewGormOwnerRepo(db)
	runs := repository.NewGormJobRunRepo(db)

	dispatcher, err := service.NewDispatcher(
		notifications,
		attempts,
		limiter,
		[]delivery.Sender{emailSender, pushSender},
		cfg.SendTimeout(),
		logger,
	)
	if err != nil {
		return fmt.Errorf("dispatcher init failed: %w", err)
	}
	dispatcher.SetMetrics(metrics)

	resolver, err := service.NewRecipientResolver(owners, logger)
	if err != nil {
		return fmt.Errorf("recipient resolver init failed: %w", err)
	}

	monitor, err := service.NewMonitor(service.MonitorDeps{
		Alerts:        alerts,
		PriceChecks:   priceChecks,
		Notifications: notifications,
		Owners:        owners,
		Runs:          runs,
		Pricing:       pricingClient,
		Resolver:      resolver,
		Dispatcher:    dispatcher,
	}, service.MonitorConfig{
		Interval:         cfg.SchedulerInterval(),
		ProviderTimeout:  cfg.ProviderTimeout(),
		Concurrency:      cfg.WorkerConcurrency,
		RunOnStart:       cfg.SchedulerRunOnStart,
		RespectFrequency: cfg.SchedulerRespectFrequency,
		Manual:           !cfg.SchedulerEnabled,
	}, logger)
	if err != nil {
		return fmt.Errorf("monitor init failed: %w", err)
	}
	monitor.SetMetrics(metrics)

	sweeper, err := service.NewStaleSweeper(notifications, cfg.StaleSweepInterval(), cfg.StalePendingAfter(), logger)
	if err != nil {
		return fmt.Errorf("stale sweeper init failed: %w", err)
	}
	sweeper.SetMetrics(metrics)

	history, err := service.NewHistoryService(runs, priceChecks, notifications, attempts)
	if err != nil {
		return fmt.Errorf("history service init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterMonitorRoutes(app, monitor, history); err != nil {
		return fmt.Errorf("route registration failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		logger.Info("http server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Warn("http server shutdown failed", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		return monitor.Start(gctx)
	})

	g.Go(func() error {
		return sweeper.Start(gctx)
	})

	logger.Info("fare-alert-engine started",
		zap.String("pricingProvider", pricingClient.Name()),
		zap.String("rateLimitBackend", cfg.RateLimitBackend),
		zap.Bool("schedulerEnabled", cfg.SchedulerEnabled),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("fare-alert-engine stopped")
	return nil
}

func newPricingClient(cfg *config.Config, logger *zap.Logger) (pricing.Client, error) {
	switch cfg.PricingProvider {
	case config.PricingProviderFake:
		logger.Warn("using fake pricing provider")
		return pricing.NewFake(), nil
	default:
		client, err := pricing.NewAmadeusClient(pricing.AmadeusConfig{
			BaseURL:      cfg.AmadeusBaseURL,
			ClientID:     cfg.AmadeusClientID,
			ClientSecret: cfg.AmadeusClientSecret,
			MaxOffers:    cfg.AmadeusMaxOffers,
			Timeout:      cfg.ProviderTimeout(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("amadeus client init failed: %w", err)
		}
		return client, nil
	}
}
