package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"banchi/internal/backend"
	"banchi/internal/cli"
	"banchi/internal/config"
	apphttp "banchi/internal/http"
	applog "banchi/internal/log"
	"banchi/internal/metrics"
	"banchi/internal/services"
	"banchi/internal/session"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}()

	publisher, closePublisher := cli.InitPublisher(logger, cfg)
	defer closePublisher()

	rec := metrics.New()

	sessions := session.NewManager(store.Stores, session.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.SessionMax,
		Secure:      cfg.SessionSecure,
	}, rec, logger.WithComponent(applog.ComponentSession))

	svc := services.NewLedgerService(publisher, rec,
		applog.NewStructuredLogger(logger.WithComponent(applog.ComponentLedger)))

	srv := apphttp.NewServer(":"+cfg.Port, sessions, svc, apphttp.Options{
		DatesEnabled:       cfg.DatesEnabled,
		BannerImage:        cfg.BannerImage,
		PDFFontPath:        cfg.PDFFontPath,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Metrics:            rec,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		Ready:              store.Ready,
		StoredSessions:     store.StoredSessions,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting banchi server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"dates_enabled", cfg.DatesEnabled,
			"amqp_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
