package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/slate/internal/config"
	"github.com/JonMunkholm/slate/internal/core"
	_ "github.com/JonMunkholm/slate/internal/core/profiles" // register upload profiles
	"github.com/JonMunkholm/slate/internal/logging"
	"github.com/JonMunkholm/slate/internal/optimizer"
	"github.com/JonMunkholm/slate/internal/store/memory"
	"github.com/JonMunkholm/slate/internal/store/postgres"
	"github.com/JonMunkholm/slate/internal/web"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	core.MaxFileSize = cfg.Upload.MaxFileSize
	core.UploadTimeout = cfg.Upload.Timeout

	var opt core.Optimizer
	if cfg.Optimizer.URL != "" {
		opt = optimizer.NewClient(optimizer.Config{
			BaseURL:    cfg.Optimizer.URL,
			APIKey:     cfg.Optimizer.APIKey,
			HTTPClient: &http.Client{Timeout: cfg.Optimizer.Timeout},
		})
	} else {
		slog.Warn("OPTIMIZER_URL not set; lineup generation is disabled")
	}

	var metrics *core.Metrics
	if cfg.Metrics.Enabled {
		metrics = core.NewMetrics()
	}

	service := core.NewService(store, core.ServiceOptions{
		Optimizer: opt,
		Limiter:   core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		Metrics:   metrics,
	})
	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		return service.StartLedgerRetention(gctx, core.RetentionConfig{
			Retention: cfg.Ledger.Retention,
			Schedule:  cfg.Ledger.PruneSchedule,
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (core.Store, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	pg, err := postgres.Open(ctx, postgres.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.EnsureSchema {
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}
	slog.Info("connected to database")
	return pg, pg.Close, nil
}
