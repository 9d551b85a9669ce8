package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nyaynow/confessions-backend/internal/database"
	"github.com/nyaynow/confessions-backend/internal/dto"
	"gorm.io/gorm"
)

// CandidateLister reports the generation candidates in fallback order.
type CandidateLister interface {
	Candidates() []string
}

type HealthHandler struct {
	db         *gorm.DB
	candidates CandidateLister
}

func NewHealthHandler(db *gorm.DB, candidates CandidateLister) *HealthHandler {
	return &HealthHandler{db: db, candidates: candidates}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		status = "degraded"
		dbStatus = "unhealthy"
	}

	resp := dto.HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		DB:         dbStatus,
		Candidates: []string{},
	}
	if h.candidates != nil {
		resp.Candidates = h.candidates.Candidates()
	}
	return c.JSON(resp)
}
