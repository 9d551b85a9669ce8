package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/nyaynow/confessions-backend/internal/apps"
	"github.com/nyaynow/confessions-backend/internal/config"
	"github.com/nyaynow/confessions-backend/internal/dto"
	"github.com/nyaynow/confessions-backend/internal/handlers"
	"github.com/nyaynow/confessions-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	moderationHandler *handlers.ModerationHandler,
	legalHandler *handlers.LegalHandler,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limit: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Error: "Too many requests"})
		},
	}))

	api.Get("/health", healthHandler.Check)

	api.Get("/legal/privacy", legalHandler.PrivacyPolicy)
	api.Get("/legal/disclaimer", legalHandler.Disclaimer)

	// Writes need an identity and are limited per identity on top of the
	// per-IP limit. Middleware is attached per route so public reads stay
	// open.
	writes := middleware.NewIdentityRateLimiter(cfg.WriteRateLimit, cfg.WriteBurst)
	protected := []fiber.Handler{middleware.JWTProtected(cfg), writes.Handler()}

	api.Post("/reports", append(protected, moderationHandler.CreateReport)...)

	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(cfg))
	admin.Get("/reports", moderationHandler.ListReports)
	admin.Put("/reports/:id", moderationHandler.ActionReport)

	for _, p := range plugins {
		p.RegisterRoutes(api, protected...)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin)
		}
	}
}
