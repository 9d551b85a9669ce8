package confessions

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/nyaynow/confessions-backend/internal/dto"
	"github.com/nyaynow/confessions-backend/internal/identity"
)

// ContentFilter rejects text that is offensive or could identify its author.
type ContentFilter interface {
	FilterContent(text string) (bool, string)
	GetRejectionMessage(reason string) string
}

// Scheduler starts background analysis of a new confession.
type Scheduler interface {
	Schedule(c *Confession)
}

type ConfessionHandler struct {
	store    *Store
	analyzer Scheduler
	filter   ContentFilter
}

func NewConfessionHandler(store *Store, analyzer Scheduler, filter ContentFilter) *ConfessionHandler {
	return &ConfessionHandler{store: store, analyzer: analyzer, filter: filter}
}

// --- Request DTOs ---

type CreateConfessionRequest struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type ReplyRequest struct {
	Text string `json:"text"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// --- Public handlers ---

func (h *ConfessionHandler) List(c *fiber.Ctx) error {
	list, err := h.store.List(c.UserContext(), ListFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Sort:     c.Query("sort", "new"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"confessions": SanitizeAll(list)})
}

func (h *ConfessionHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid confession ID")
	}

	confession, err := h.store.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(Sanitize(confession))
}

// --- Protected handlers (require JWT) ---

func (h *ConfessionHandler) Create(c *fiber.Ctx) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateConfessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg, ok := h.screen(req.Title, req.Body); !ok {
		return badRequest(c, msg)
	}
	for _, tag := range req.Tags {
		if msg, ok := h.screen(tag); !ok {
			return badRequest(c, msg)
		}
	}

	confession, err := h.store.Create(c.UserContext(), NewConfession{
		AuthorID: ident.ID,
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		return h.fail(c, err)
	}

	h.analyzer.Schedule(confession)

	return c.Status(fiber.StatusCreated).JSON(dto.CreatedResponse{
		ID:      confession.ID.String(),
		Message: "Confession posted anonymously. An AI analysis will appear shortly.",
	})
}

func (h *ConfessionHandler) Reply(c *fiber.Ctx) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid confession ID")
	}

	var req ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if msg, ok := h.screen(req.Text); !ok {
		return badRequest(c, msg)
	}

	_, err = h.store.AppendReply(c.UserContext(), id, Responder{
		ID:              ident.ID,
		Role:            ident.Role,
		Specializations: ident.Specializations,
	}, req.Text)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "Reply added"})
}

func (h *ConfessionHandler) Upvote(c *fiber.Ctx) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid confession ID")
	}

	res, err := h.store.ToggleUpvote(c.UserContext(), id, ident.ID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"upvotes": res.Count,
		"upvoted": res.State == Added,
	})
}

func (h *ConfessionHandler) Helpful(c *fiber.Ctx) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid confession ID")
	}
	replyID, err := uuid.Parse(c.Params("replyId"))
	if err != nil {
		return badRequest(c, "Invalid reply ID")
	}

	res, err := h.store.ToggleHelpful(c.UserContext(), id, replyID, ident.ID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"helpful": res.Count,
		"marked":  res.State == Added,
	})
}

func (h *ConfessionHandler) Resolve(c *fiber.Ctx) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid confession ID")
	}

	if err := h.store.Resolve(c.UserContext(), id, ident.ID); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: "Confession marked as resolved"})
}

// --- Admin handlers ---

// AdminGet returns the stored record with its author reference. It is the
// only handler that does not go through Sanitize.
func (h *ConfessionHandler) AdminGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid confession ID")
	}

	confession, err := h.store.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ToAdmin(confession))
}

func (h *ConfessionHandler) AdminSetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid confession ID")
	}

	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.store.SetStatus(c.UserContext(), id, req.Status); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: "Status updated"})
}

// --- helpers ---

func (h *ConfessionHandler) screen(texts ...string) (string, bool) {
	if h.filter == nil {
		return "", true
	}
	for _, t := range texts {
		if ok, reason := h.filter.FilterContent(t); !ok {
			return h.filter.GetRejectionMessage(reason), false
		}
	}
	return "", true
}

func (h *ConfessionHandler) fail(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return badRequest(c, ve.Error())
	case errors.Is(err, ErrReplyNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Reply not found"})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Confession not found"})
	case errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "Only the author can do that"})
	}
	slog.Error("confession request failed", "method", c.Method(), "path", c.Route().Path, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
}
