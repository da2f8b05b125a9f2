package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/design-catalog/internal/config"
	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/handler"
	"github.com/msomdec/design-catalog/internal/media"
	"github.com/msomdec/design-catalog/internal/repository/sqlite"
	"github.com/msomdec/design-catalog/internal/service"
	"github.com/msomdec/design-catalog/internal/storage"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	blobs, err := openBlobStore(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open blob store", "backend", cfg.BlobBackend, "error", err)
		os.Exit(1)
	}
	slog.Info("blob store ready", "backend", cfg.BlobBackend)

	manager := media.NewManager(blobs, &media.Optimizer{MaxDimension: cfg.ImageMaxDimension})
	coordinator := service.NewCoordinator(db, manager)
	designService := service.NewDesignService(db.Designs(), coordinator)
	counterService := service.NewCounterService(db.Counters())
	authService := service.NewAuthService(db.Admins(), cfg.JWTSecret, cfg.BcryptCost)

	// Bootstrap the first admin (idempotent).
	if cfg.AdminEmail != "" {
		if _, err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminName, cfg.AdminPassword); err != nil {
			slog.Error("failed to ensure admin", "error", err)
			os.Exit(1)
		}
	}

	loginLimiter := service.NewPerMinute(cfg.LoginRatePerMinute)
	defer loginLimiter.Close()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, designService, counterService, blobs, loginLimiter, handler.Options{
		MediaBaseURL: cfg.MediaBaseURL,
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Saves in flight get longer than plain requests to finish compensating.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openBlobStore(ctx context.Context, cfg *config.Config) (domain.BlobStore, error) {
	if cfg.BlobBackend == config.BlobBackendS3 {
		s3, err := storage.NewS3(ctx, storage.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}

	local, err := storage.NewLocal(cfg.BlobRoot)
	if err != nil {
		return nil, err
	}
	return local, nil
}
