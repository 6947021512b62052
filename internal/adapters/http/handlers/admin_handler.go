package handlers

import (
	"context"
	"errors"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/core/domain"
	"payportal/internal/core/services"
	"payportal/internal/pkg/logger"
	"payportal/internal/pkg/pagination"
	"payportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles employee payment review endpoints
type AdminHandler struct {
	reviewService *services.ReviewService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reviewService *services.ReviewService) *AdminHandler {
	return &AdminHandler{reviewService: reviewService}
}

// ListPayments lists payments for review
// @Summary List payments for review
// @Description Newest first, with recipient account and SWIFT code decrypted
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Pending | Verified | Submitted to SWIFT"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/payments [get]
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var status *domain.Status
	if raw := c.Query("status"); raw != "" {
		s, err := domain.ParseStatus(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid status filter")
		}
		status = &s
	}

	page := pagination.GetParams(c)
	payments, total, err := h.reviewService.List(c.UserContext(), actor, status, page)
	if err != nil {
		return h.fail(c, err)
	}

	return response.Success(c, "Payments retrieved successfully", fiber.Map{
		"payments":   payments,
		"pagination": pagination.GetMeta(page, total),
	})
}

// History returns a payment's event history
// @Summary Payment history
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/payments/{id}/history [get]
func (h *AdminHandler) History(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid payment ID")
	}

	events, err := h.reviewService.History(c.UserContext(), actor, uint(id))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "History retrieved successfully", events)
}

// Verify marks a payment as verified
// @Summary Verify payment
// @Description Pending -> Verified
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/payments/{id}/verify [patch]
func (h *AdminHandler) Verify(c *fiber.Ctx) error {
	return h.transition(c, "Payment verified", (*services.ReviewService).Verify)
}

// Submit marks a verified payment as submitted to SWIFT
// @Summary Submit payment to SWIFT
// @Description Verified -> Submitted to SWIFT
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/payments/{id}/submit [post]
func (h *AdminHandler) Submit(c *fiber.Ctx) error {
	return h.transition(c, "Payment submitted to SWIFT", (*services.ReviewService).SubmitToSwift)
}

type transitionFunc func(*services.ReviewService, context.Context, services.Actor, uint) (*models.PaymentSummary, error)

func (h *AdminHandler) transition(c *fiber.Ctx, message string, fn transitionFunc) error {
	actor, ok := actorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid payment ID")
	}

	payment, err := fn(h.reviewService, c.UserContext(), actor, uint(id))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, message, payment)
}

func (h *AdminHandler) fail(c *fiber.Ctx, err error) error {
	var ist *domain.InvalidStateTransitionError
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "You don't have permission to access this resource")
	case errors.Is(err, services.ErrPaymentNotFound):
		return response.NotFound(c, "Payment not found")
	case errors.As(err, &ist):
		return response.Conflict(c, ist.Error())
	case errors.Is(err, services.ErrConcurrentUpdate):
		return response.Conflict(c, "Payment was modified by another request, reload and retry")
	default:
		logger.Error("admin payment operation failed", logger.Err(err))
		return response.InternalServerError(c, "Failed to process payment")
	}
}
