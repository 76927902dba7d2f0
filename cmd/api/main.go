package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/event-sms-broadcaster/cmd/mainconfig"
	"github.com/wolfman30/event-sms-broadcaster/internal/api/router"
	"github.com/wolfman30/event-sms-broadcaster/internal/archive"
	"github.com/wolfman30/event-sms-broadcaster/internal/catalog"
	appconfig "github.com/wolfman30/event-sms-broadcaster/internal/config"
	"github.com/wolfman30/event-sms-broadcaster/internal/dispatch"
	"github.com/wolfman30/event-sms-broadcaster/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/event-sms-broadcaster/internal/http/middleware"
	"github.com/wolfman30/event-sms-broadcaster/internal/messaging"
	"github.com/wolfman30/event-sms-broadcaster/internal/notify"
	observemetrics "github.com/wolfman30/event-sms-broadcaster/internal/observability/metrics"
	"github.com/wolfman30/event-sms-broadcaster/internal/phone"
	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

func main() {
	mainconfig.LoadDotEnv()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting event-sms-broadcaster API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"dry_run", cfg.DryRun,
	)

	sender, provider, err := mainconfig.BuildSMSSender(cfg, logger)
	if err != nil {
		logger.Error("sms transport unavailable", "error", err)
		os.Exit(1)
	}
	logger.Info("sms transport selected", "provider", provider)

	metricsHandler, metrics := setupDispatchMetrics()
	broadcasts := handlers.NewBroadcastHandler(handlers.BroadcastConfig{
		Runner:         newSequencer(cfg, sender, metrics, logger),
		Archive:        setupReportArchive(context.Background(), cfg, logger),
		Notifier:       notify.NewSummaryNotifier(mainconfig.BuildEmailSender(cfg, logger), []string{cfg.ReportEmailTo}),
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		Broadcasts:         broadcasts,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		OperatorJWTSecret:  cfg.AdminJWTSecret,
		RateLimiter:        httpmiddleware.NewClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	// No WriteTimeout: a paced broadcast holds the request for the whole batch.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupDispatchMetrics() (http.Handler, *observemetrics.DispatchMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observemetrics.NewDispatchMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics
}

func newSequencer(cfg *appconfig.Config, sender messaging.Sender, metrics *observemetrics.DispatchMetrics, logger *logging.Logger) *dispatch.Sequencer {
	return dispatch.NewSequencer(
		dispatch.Config{Delay: cfg.SendDelay},
		sender,
		catalog.NewMapper(nil, cfg.CatalogDefaultSlug),
		phone.NewResolver(cfg.PhoneRegion, logger),
		logger,
	).WithMetrics(metrics)
}

// setupReportArchive returns nil when no bucket is configured or AWS cannot
// be initialized; broadcasts still run without an archive.
func setupReportArchive(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *archive.Store {
	if cfg.ReportBucket == "" {
		return nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config, report archive disabled", "error", err)
		return nil
	}
	return archive.NewStore(mainconfig.NewS3Client(awsCfg, cfg), cfg.ReportBucket, logger)
}
