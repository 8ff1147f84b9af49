package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/transmission-savoirs/api/app/db"
	appLogger "github.com/transmission-savoirs/api/app/logger"
	"github.com/transmission-savoirs/api/app/mailer"
	"github.com/transmission-savoirs/api/app/observability/metrics"
	"github.com/transmission-savoirs/api/config"
	"github.com/transmission-savoirs/api/internal/api/ad"
	"github.com/transmission-savoirs/api/internal/api/auth"
	"github.com/transmission-savoirs/api/internal/api/category"
	"github.com/transmission-savoirs/api/internal/api/contact"
	"github.com/transmission-savoirs/api/internal/api/user"
	"github.com/transmission-savoirs/api/internal/router"
)

const lookupCacheTTL = 10 * time.Minute

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Database ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Observability ---
	if err := metrics.Setup(); err != nil {
		logger.Error("Failed to set up metrics exporter", slog.Any("error", err))
		os.Exit(1)
	}
	appMetrics, err := metrics.InitAppMetrics()
	if err != nil {
		logger.Error("Failed to initialize metric instruments", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency wiring ---
	smtpTransport := mailer.NewSMTPTransport(cfg.SMTP, logger)
	appMailer := mailer.New(smtpTransport, cfg.SMTP, logger)

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, appMailer, cfg.JWT, logger)
	authHandler := auth.NewAuthHandler(authService, appMetrics, logger)

	adRepo := ad.NewPostgresAdRepo(pool, logger)
	adHandler := ad.NewAdHandler(adRepo, appMetrics, logger)

	lookupRepo := category.NewCachedLookupRepo(category.NewPostgresLookupRepo(pool, logger), lookupCacheTTL)
	categoryHandler := category.NewCategoryHandler(lookupRepo, logger)

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userHandler := user.NewUserHandler(userRepo, logger)

	contactHandler := contact.NewContactHandler(appMailer, appMetrics, logger)

	apiRouter := router.SetupRouter(&router.Config{
		AuthHandler:     authHandler,
		AdHandler:       adHandler,
		CategoryHandler: categoryHandler,
		UserHandler:     userHandler,
		ContactHandler:  contactHandler,
		Authenticate:    auth.Authenticate(logger, cfg.JWT),
		RequireAdmin:    auth.RequireAdmin(logger),
	})

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(cfg.Server.Timeout))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", apiRouter)

	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
