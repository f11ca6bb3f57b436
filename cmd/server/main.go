package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"walletledger/config"
	"walletledger/internal/database"
	"walletledger/internal/events"
	"walletledger/internal/ledger"
	"walletledger/internal/middleware"
	"walletledger/internal/repository"
	"walletledger/internal/router"
	"walletledger/internal/service"
	"walletledger/internal/worker"
	"walletledger/internal/ws"
	"walletledger/pkg/payment"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	store := repository.NewSQLStore(db)

	var provider payment.Provider = &payment.StubProvider{}
	if cfg.Payment.SecretKey != "" {
		provider = payment.NewPaystackProvider(cfg.Payment.BaseURL, cfg.Payment.SecretKey, cfg.Payment.CallbackURL, cfg.Payment.Timeout, logger)
	} else {
		logger.Warn("PAYMENT_SECRET_KEY not set, using stub payment provider and rejecting all webhooks")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("event publisher close", zap.Error(err))
		}
	}()

	hub := ws.NewHub()
	notifier := service.NewNotificationService(hub, publisher, logger)

	svc := ledger.NewService(store, provider, logger, ledger.Config{
		WebhookSecret:   []byte(cfg.Payment.SecretKey),
		MinDeposit:      cfg.Payment.MinDeposit,
		ProviderTimeout: cfg.Payment.Timeout,
		GraceWindow:     cfg.Sweeper.GraceWindow,
		BatchSize:       cfg.Sweeper.BatchSize,
		CallDelay:       cfg.Sweeper.CallDelay,
		CallTimeout:     cfg.Sweeper.CallTimeout,
	}, ledger.WithNotifier(notifier))

	limiter := middleware.NewKeyedRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	publicLimiter := middleware.NewKeyedRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	engine, err := router.Setup(cfg, router.Deps{
		Ledger:        svc,
		Hub:           hub,
		Limiter:       limiter,
		PublicLimiter: publicLimiter,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RateLimit.Window)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				limiter.Prune()
				publicLimiter.Prune()
			}
		}
	})

	if cfg.Sweeper.Enabled {
		var locker worker.Locker
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				return err
			}
			locker = worker.NewRedisLocker(rdb)
		}
		job := worker.NewSweepJob(svc, locker, cfg.Sweeper.LockKey, cfg.Sweeper.LockTTL, logger)
		scheduler, err := worker.NewScheduler(cfg.Sweeper.Schedule, job, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return scheduler.Start(gctx) })
		logger.Info("sweeper scheduled", zap.String("schedule", cfg.Sweeper.Schedule), zap.Bool("distributed_lock", locker != nil))
	}

	return g.Wait()
}
