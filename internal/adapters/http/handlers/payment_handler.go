package handlers

import (
	"errors"
	"strings"

	"payportal/internal/core/domain"
	"payportal/internal/core/services"
	"payportal/internal/pkg/logger"
	"payportal/internal/pkg/response"
	"payportal/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles customer payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePaymentRequest represents the payment form
type CreatePaymentRequest struct {
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	RecipientAccount string `json:"recipientAccount"`
	SwiftCode        string `json:"swiftCode"`
}

// Create handles payment submission
// @Summary Submit payment
// @Description Create a Pending international payment for the current customer
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePaymentRequest true "Payment data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /payments [post]
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	form := validation.Payment{
		Amount:           strings.TrimSpace(req.Amount),
		Currency:         strings.TrimSpace(req.Currency),
		RecipientAccount: strings.TrimSpace(req.RecipientAccount),
		SwiftCode:        strings.TrimSpace(req.SwiftCode),
	}
	if errs := validation.ValidatePayment(form); len(errs) > 0 {
		return response.ValidationFailed(c, errs)
	}

	payment, err := h.paymentService.Create(c.UserContext(), actor, &services.CreatePaymentInput{
		Amount:           form.Amount,
		Currency:         form.Currency,
		RecipientAccount: form.RecipientAccount,
		SwiftCode:        form.SwiftCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Only customers can submit payments")
		case errors.Is(err, services.ErrInvalidAmount):
			return response.BadRequest(c, err.Error())
		default:
			logger.Error("create payment failed", logger.Err(err))
			return response.InternalServerError(c, "Failed to create payment")
		}
	}

	return response.Created(c, "Payment submitted", payment)
}

// ListMine returns the current customer's payments
// @Summary List my payments
// @Description Date, amount, currency and status of the customer's own payments, newest first
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /payments [get]
func (h *PaymentHandler) ListMine(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	payments, err := h.paymentService.ListMine(c.UserContext(), actor)
	if err != nil {
		logger.Error("list payments failed", logger.Err(err))
		return response.InternalServerError(c, "Failed to load payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}
