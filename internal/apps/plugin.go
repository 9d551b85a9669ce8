package apps

import (
	"github.com/gofiber/fiber/v2"
)

// Plugin defines the interface every feature module must implement.
type Plugin interface {
	// ID returns the unique module identifier.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts module routes on the /api group. Public routes
	// are registered bare; routes that need a caller identity are registered
	// behind the protected handlers (JWT, then per-identity rate limit).
	RegisterRoutes(router fiber.Router, protected ...fiber.Handler)
}

// AdminPlugin extends Plugin with admin-specific route registration.
type AdminPlugin interface {
	Plugin

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has both JWT and Admin middleware applied.
	RegisterAdminRoutes(router fiber.Router)
}
