package confessions

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nyaynow/confessions-backend/internal/services"
)

type ConfessionsPlugin struct {
	store      *Store
	analyzer   *Analyzer
	moderation *services.ModerationService
}

// New wires the plugin and registers confessions and replies as report
// targets on the moderation service.
func New(store *Store, analyzer *Analyzer, moderation *services.ModerationService) *ConfessionsPlugin {
	if moderation != nil {
		moderation.RegisterTarget("confession", store.Exists)
		moderation.RegisterTarget("reply", store.ReplyExists)
	}
	return &ConfessionsPlugin{store: store, analyzer: analyzer, moderation: moderation}
}

func (p *ConfessionsPlugin) ID() string { return "confessions" }

func (p *ConfessionsPlugin) Models() []interface{} {
	return []interface{}{
		&Confession{},
		&Reply{},
		&ConfessionUpvote{},
		&ReplyHelpfulMark{},
	}
}

func (p *ConfessionsPlugin) RegisterRoutes(router fiber.Router, protected ...fiber.Handler) {
	var filter ContentFilter
	if p.moderation != nil {
		filter = p.moderation
	}
	h := NewConfessionHandler(p.store, p.analyzer, filter)
	auth := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, protected...), handler)
	}

	router.Get("/confessions", h.List)
	router.Get("/confessions/:id", h.GetByID)

	router.Post("/confessions", auth(h.Create)...)
	router.Post("/confessions/:id/reply", auth(h.Reply)...)
	router.Post("/confessions/:id/upvote", auth(h.Upvote)...)
	router.Post("/confessions/:id/reply/:replyId/helpful", auth(h.Helpful)...)
	router.Patch("/confessions/:id/resolve", auth(h.Resolve)...)
}

func (p *ConfessionsPlugin) RegisterAdminRoutes(router fiber.Router) {
	h := NewConfessionHandler(p.store, p.analyzer, nil)
	router.Get("/confessions/:id", h.AdminGet)
	router.Patch("/confessions/:id/status", h.AdminSetStatus)
}
