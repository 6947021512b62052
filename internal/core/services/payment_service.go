package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/persistence/repositories"
	"payportal/internal/core/domain"
	"payportal/internal/pkg/fieldcrypt"
	"payportal/internal/pkg/logger"

	"github.com/shopspring/decimal"
)

// Payment errors
var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrInvalidAmount    = errors.New("amount must be a positive number with up to 2 decimal places")
	ErrConcurrentUpdate = errors.New("payment was modified concurrently")
)

// Actor is the authenticated principal performing an operation
type Actor struct {
	UserID uint
	Role   domain.Role
	IP     string
}

// CreatePaymentInput represents a validated payment form
type CreatePaymentInput struct {
	Amount           string
	Currency         string
	RecipientAccount string
	SwiftCode        string
}

// PaymentService handles customer payment submissions
type PaymentService struct {
	paymentRepo repositories.PaymentRepository
	cipher      *fieldcrypt.Cipher
}

// NewPaymentService creates a new payment service
func NewPaymentService(paymentRepo repositories.PaymentRepository, cipher *fieldcrypt.Cipher) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		cipher:      cipher,
	}
}

// Create stores a new Pending payment for the actor
func (s *PaymentService) Create(ctx context.Context, actor Actor, input *CreatePaymentInput) (*models.PaymentSummary, error) {
	if !actor.Role.CanSubmitPayments() {
		return nil, domain.ErrForbidden
	}

	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || !amount.IsPositive() || amount.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}

	recipient, err := s.cipher.Encrypt(input.RecipientAccount)
	if err != nil {
		return nil, fmt.Errorf("encrypt recipient account: %w", err)
	}
	swift, err := s.cipher.Encrypt(strings.ToUpper(input.SwiftCode))
	if err != nil {
		return nil, fmt.Errorf("encrypt swift code: %w", err)
	}

	payment := &models.Payment{
		UserID:           actor.UserID,
		Amount:           amount,
		Currency:         input.Currency,
		RecipientAccount: recipient,
		SwiftCode:        swift,
		Status:           domain.StatusPending,
		Version:          1,
	}
	event := &models.PaymentEvent{
		EventType:   models.EventCreate,
		ToStatus:    domain.StatusPending,
		PerformedBy: &actor.UserID,
		IPAddress:   actor.IP,
	}

	if err := s.paymentRepo.Create(ctx, payment, event); err != nil {
		return nil, err
	}

	logger.Info("payment created",
		logger.Uint("payment_id", payment.ID),
		logger.Uint("user_id", actor.UserID),
		logger.String("currency", payment.Currency),
	)
	return payment.ToSummary(), nil
}

// ListMine returns the actor's own payments, newest first
func (s *PaymentService) ListMine(ctx context.Context, actor Actor) ([]*models.PaymentSummary, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.PaymentSummary, 0, len(payments))
	for _, p := range payments {
		out = append(out, p.ToSummary())
	}
	return out, nil
}
