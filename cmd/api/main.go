package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-pos/internal/auth"
	"retail-pos/internal/config"
	"retail-pos/internal/database"
	"retail-pos/internal/handler"
	"retail-pos/internal/imagestore"
	"retail-pos/internal/metrics"
	"retail-pos/internal/repository"
	"retail-pos/internal/router"
	"retail-pos/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting retail POS API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	images := newImageStore(ctx, cfg, logger)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	saleRepo := repository.NewSaleRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)

	// Initialize services
	processor := service.NewOrderProcessor(
		productRepo,
		saleRepo,
		service.NewIDGenerator(service.OrderIDPrefix),
		logger,
	)
	productService := service.NewProductService(
		productRepo,
		images,
		service.NewIDGenerator(service.ProductIDPrefix),
		logger,
	)
	orderService := service.NewOrderService(saleRepo, processor, orderMetrics, logger)
	dashboardService := service.NewDashboardService(productRepo, saleRepo, logger)
	authService := service.NewAuthService(userRepo, tokens, logger)
	reportService := service.NewReportService(saleRepo, logger)

	// Initialize HTTP handlers and router
	mux := router.New(
		router.Handlers{
			Product:   handler.NewProductHandler(productService, cfg.Upload.MaxBytes, logger),
			Order:     handler.NewOrderHandler(orderService, logger),
			Dashboard: handler.NewDashboardHandler(dashboardService, logger),
			Auth:      handler.NewAuthHandler(authService, logger),
			Report:    handler.NewReportHandler(reportService, logger),
		},
		router.Options{
			Tokens:     tokens,
			ProtectAPI: cfg.Auth.ProtectAPI,
			UploadDir:  cfg.Upload.Dir,
			Metrics:    promhttp.Handler(),
			Database:   pool,
		},
		logger,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Bool("protect_api", cfg.Auth.ProtectAPI).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newImageStore returns the disk store, fronted by S3 when it is enabled and
// reachable. Disk stays the fallback and keeps serving images saved earlier.
func newImageStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) imagestore.Store {
	fileStore := imagestore.NewFileStore(cfg.Upload.Dir, logger)

	if !cfg.S3.Enabled {
		logger.Info().Str("dir", cfg.Upload.Dir).Msg("using local file system for product images (S3 disabled)")
		return imagestore.NewFallbackStore(nil, fileStore, logger)
	}

	s3Store, err := imagestore.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 image store, falling back to local file system only")
		return imagestore.NewFallbackStore(nil, fileStore, logger)
	}

	return imagestore.NewFallbackStore(s3Store, fileStore, logger)
}
