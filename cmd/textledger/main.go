package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"textledger/internal/backend"
	"textledger/internal/cache"
	"textledger/internal/chart"
	"textledger/internal/config"
	"textledger/internal/engine"
	"textledger/internal/events"
	apphttp "textledger/internal/http"
	"textledger/internal/ledger"
	"textledger/internal/log"
)

const cacheSweepInterval = time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logger := log.New(logCfg)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := backend.NewFactory(logger).Create(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close ledger backend", log.FieldError, err)
		}
	}()

	caches := cache.NewManager(logger)
	if res.Cache != nil {
		caches.Register(res.Cache)
	}
	caches.Start(cacheSweepInterval)
	defer caches.Stop()

	charts, err := chart.NewPieRenderer(cfg.ChartDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = client
		logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	eng := engine.New(res.Store, charts, publisher, logger, engine.Config{
		OtherThreshold: cfg.OtherBucketThreshold,
		Lookback:       cfg.ReportLastLookback,
	})

	srv := apphttp.NewServer(":"+cfg.Port, eng, apphttp.Options{
		ChartDir:           cfg.ChartDir,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Ready: func(ctx context.Context) error {
			_, err := res.Store.Exists(ctx, ledger.Key{Owner: "readyz", Year: time.Now().Year()})
			return err
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting textledger server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
