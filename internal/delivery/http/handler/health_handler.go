package handler

import (
	"context"
	"time"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type HealthHandler struct {
	db database.DB
}

func NewHealthHandler(db database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	if app == nil {
		return
	}
	app.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	dbStatus := "ok"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			dbStatus = "down"
		}
	}

	data := map[string]any{"database": dbStatus}
	if dbStatus != "ok" {
		return response.Error(c, fiber.StatusServiceUnavailable, response.CodeInternal, "degraded", data)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}
