package handlers

import (
	"payportal/internal/config"
	"payportal/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg     *config.Config
	checkDB func() error
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config, checkDB func() error) *HealthHandler {
	if checkDB == nil {
		checkDB = config.HealthCheck
	}
	return &HealthHandler{cfg: cfg, checkDB: checkDB}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "International Payment Portal API v1.0 is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	code, overall, dbStatus := fiber.StatusOK, "ok", "healthy"
	if err := h.checkDB(); err != nil {
		logger.Warn("database health check failed", logger.Err(err))
		code, overall, dbStatus = fiber.StatusServiceUnavailable, "degraded", "unhealthy"
	}

	return c.Status(code).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
		},
	})
}

// APIInfo handles API v1 info
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "International Payment Portal API v1.0",
		"version": "1.0.0",
	})
}
