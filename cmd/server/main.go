package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/nyaynow/confessions-backend/internal/apps"
	"github.com/nyaynow/confessions-backend/internal/apps/confessions"
	"github.com/nyaynow/confessions-backend/internal/claims"
	"github.com/nyaynow/confessions-backend/internal/config"
	"github.com/nyaynow/confessions-backend/internal/database"
	"github.com/nyaynow/confessions-backend/internal/dto"
	"github.com/nyaynow/confessions-backend/internal/generation"
	"github.com/nyaynow/confessions-backend/internal/handlers"
	"github.com/nyaynow/confessions-backend/internal/logging"
	"github.com/nyaynow/confessions-backend/internal/middleware"
	"github.com/nyaynow/confessions-backend/internal/routes"
	"github.com/nyaynow/confessions-backend/internal/services"
)

const analysisClaimTTL = 24 * time.Hour

func main() {
	// Optional .env for local runs; real environment wins.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env")
	}

	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" && cfg.DBPassword == "" {
		slog.Error("DATABASE_URL or DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.MigrateShared(db); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// Database log sink (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	logger := slog.New(logging.NewMultiHandler(stdout, pgLogHandler))
	slog.SetDefault(logger)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Generation gateway and analysis pipeline
	gateway := generation.FromConfig(cfg, logger.With("component", "generation"))

	var claimer claims.Claimer = claims.NewMemoryClaimer(analysisClaimTTL)
	var redisClaimer *claims.RedisClaimer
	if cfg.RedisURL != "" {
		redisClaimer, err = claims.NewRedisClaimer(cfg.RedisURL, analysisClaimTTL)
		if err != nil {
			slog.Error("redis claimer unavailable, using in-memory claims", "error", err)
		} else {
			claimer = redisClaimer
			slog.Info("analysis claims backed by redis")
		}
	}

	moderationService := services.NewModerationService(db)
	store := confessions.NewStore(db)
	analyzer := confessions.NewAnalyzer(store, gateway, claimer, cfg.AIWorkers, logger.With("component", "analyzer"))

	plugins := []apps.Plugin{
		confessions.New(store, analyzer, moderationService),
	}

	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(db, models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, gateway)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	legalHandler := handlers.NewLegalHandler("")

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		return c.Next()
	})

	routes.Setup(app, cfg, healthHandler, moderationHandler, legalHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Let in-flight analyses write back before the database goes away.
	analyzer.Wait()

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClaimer != nil {
		if err := redisClaimer.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
