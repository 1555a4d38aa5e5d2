package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/api"
	"github.com/saturnino-fabrica-de-software/vigia/internal/config"
	"github.com/saturnino-fabrica-de-software/vigia/internal/database"
	"github.com/saturnino-fabrica-de-software/vigia/internal/gallery"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider/dlib"
	providermock "github.com/saturnino-fabrica-de-software/vigia/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/vigia/internal/repository"
	"github.com/saturnino-fabrica-de-software/vigia/internal/service"
	"github.com/saturnino-fabrica-de-software/vigia/internal/train"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Vigia API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("gallery_store", cfg.GalleryStore),
		slog.String("provider", cfg.ProviderType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Face embedder
	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		return err
	}

	// Gallery store
	deps := &api.Dependencies{Embedder: embedder}
	var store gallery.Store
	switch cfg.GalleryStore {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		store = repository.NewGalleryRepository(pool)
		deps.DB = pool
	case "file":
		store = gallery.NewFileStore(cfg.ModelsDir)
	default:
		return fmt.Errorf("unknown gallery store %q", cfg.GalleryStore)
	}

	// Face service
	trainer := train.NewTrainer(embedder, store, logger)
	faceService := service.NewFaceService(cfg.DataDir, embedder, store, trainer, logger).
		WithTolerance(cfg.Tolerance)
	if err := faceService.LoadGallery(ctx); err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}
	deps.FaceService = faceService

	// Setup router
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

func newEmbedder(cfg *config.Config, logger *slog.Logger) (provider.FaceEmbedder, error) {
	switch cfg.ProviderType {
	case "dlib":
		dlibCfg := dlib.DefaultConfig()
		dlibCfg.BaseURL = cfg.DlibURL
		return dlib.NewProvider(dlibCfg), nil
	case "mock":
		logger.Warn("using mock face embedder; recognition results are synthetic")
		return providermock.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.ProviderType)
	}
}
