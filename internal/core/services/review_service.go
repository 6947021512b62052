package services

import (
	"context"
	"errors"
	"time"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/persistence/repositories"
	"payportal/internal/core/domain"
	"payportal/internal/pkg/fieldcrypt"
	"payportal/internal/pkg/logger"
	"payportal/internal/pkg/metrics"
	"payportal/internal/pkg/pagination"

	"gorm.io/gorm"
)

// ReviewCustomer is the customer shown next to a payment under review
type ReviewCustomer struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// ReviewPayment is a payment with its sensitive fields revealed for
// on-screen verification. RecipientAccount and SwiftCode are nil when the
// stored envelope could not be decrypted.
type ReviewPayment struct {
	ID               uint            `json:"id"`
	Date             time.Time       `json:"date"`
	Amount           string          `json:"amount"`
	Currency         string          `json:"currency"`
	Status           domain.Status   `json:"status"`
	RecipientAccount *string         `json:"recipientAccount"`
	SwiftCode        *string         `json:"swiftCode"`
	Customer         *ReviewCustomer `json:"customer"`
	DispatchedAt     *time.Time      `json:"dispatchedAt,omitempty"`
	DispatchFailedAt *time.Time      `json:"dispatchFailedAt,omitempty"`
}

// ReviewService lets employees inspect and advance payments
type ReviewService struct {
	paymentRepo repositories.PaymentRepository
	eventRepo   repositories.PaymentEventRepository
	cipher      *fieldcrypt.Cipher
}

// NewReviewService creates a new review service
func NewReviewService(
	paymentRepo repositories.PaymentRepository,
	eventRepo repositories.PaymentEventRepository,
	cipher *fieldcrypt.Cipher,
) *ReviewService {
	return &ReviewService{
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		cipher:      cipher,
	}
}

// List returns payments newest first, optionally filtered by status
func (s *ReviewService) List(ctx context.Context, actor Actor, status *domain.Status, page pagination.Params) ([]*ReviewPayment, int64, error) {
	if !actor.Role.CanReviewPayments() {
		return nil, 0, domain.ErrForbidden
	}

	payments, total, err := s.paymentRepo.List(ctx, repositories.PaymentFilter{
		Status: status,
		Offset: page.Offset(),
		Limit:  page.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]*ReviewPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, s.reveal(p))
	}
	return out, total, nil
}

// History returns the recorded events of one payment
func (s *ReviewService) History(ctx context.Context, actor Actor, paymentID uint) ([]*models.PaymentEvent, error) {
	if !actor.Role.CanReviewPayments() {
		return nil, domain.ErrForbidden
	}
	if _, err := s.load(ctx, paymentID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByPaymentID(ctx, paymentID)
}

func (s *ReviewService) reveal(p *models.Payment) *ReviewPayment {
	rp := &ReviewPayment{
		ID:               p.ID,
		Date:             p.CreatedAt,
		Amount:           p.Amount.StringFixed(2),
		Currency:         p.Currency,
		Status:           p.Status,
		DispatchedAt:     p.DispatchedAt,
		DispatchFailedAt: p.DispatchFailedAt,
	}
	if p.User != nil {
		rp.Customer = &ReviewCustomer{ID: p.User.ID, Username: p.User.Username, FullName: p.User.FullName}
	}

	if recipient, err := s.cipher.Decrypt(p.RecipientAccount); err == nil {
		rp.RecipientAccount = &recipient
	} else {
		logger.Warn("payment recipient could not be decrypted", logger.Uint("payment_id", p.ID), logger.Err(err))
	}
	if swift, err := s.cipher.Decrypt(p.SwiftCode); err == nil {
		rp.SwiftCode = &swift
	} else {
		logger.Warn("payment swift code could not be decrypted", logger.Uint("payment_id", p.ID), logger.Err(err))
	}
	return rp
}

// Verify moves a payment from Pending to Verified
func (s *ReviewService) Verify(ctx context.Context, actor Actor, paymentID uint) (*models.PaymentSummary, error) {
	return s.advance(ctx, actor, paymentID, domain.TransitionVerify)
}

// SubmitToSwift moves a payment from Verified to Submitted to SWIFT. The
// network hand-off happens later in SwiftDispatchService.
func (s *ReviewService) SubmitToSwift(ctx context.Context, actor Actor, paymentID uint) (*models.PaymentSummary, error) {
	return s.advance(ctx, actor, paymentID, domain.TransitionSubmit)
}

func (s *ReviewService) advance(ctx context.Context, actor Actor, paymentID uint, t domain.Transition) (*models.PaymentSummary, error) {
	if !actor.Role.CanReviewPayments() {
		return nil, domain.ErrForbidden
	}

	row, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	payment := row.ToDomain()
	from := payment.Status
	if err := payment.AdvanceStatus(t); err != nil {
		metrics.PaymentStatusTransitionsTotal.WithLabelValues(string(t), metrics.ResultRejected).Inc()
		return nil, err
	}

	event := &models.PaymentEvent{
		EventType:   eventType(t),
		FromStatus:  from,
		ToStatus:    payment.Status,
		PerformedBy: &actor.UserID,
		IPAddress:   actor.IP,
	}
	if err := s.paymentRepo.UpdateStatus(ctx, paymentID, payment.Version, payment.Status, event); err != nil {
		if errors.Is(err, repositories.ErrStaleVersion) {
			metrics.PaymentStatusTransitionsTotal.WithLabelValues(string(t), metrics.ResultConflict).Inc()
			return nil, ErrConcurrentUpdate
		}
		metrics.PaymentStatusTransitionsTotal.WithLabelValues(string(t), metrics.ResultFailure).Inc()
		return nil, err
	}

	metrics.PaymentStatusTransitionsTotal.WithLabelValues(string(t), metrics.ResultSuccess).Inc()
	logger.Info("payment status changed",
		logger.Uint("payment_id", paymentID),
		logger.String("from", string(from)),
		logger.String("to", string(payment.Status)),
		logger.Uint("by", actor.UserID),
	)

	row.Status = payment.Status
	row.Version = payment.Version + 1
	return row.ToSummary(), nil
}

func (s *ReviewService) load(ctx context.Context, paymentID uint) (*models.Payment, error) {
	row, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return row, nil
}

func eventType(t domain.Transition) string {
	switch t {
	case domain.TransitionVerify:
		return models.EventVerify
	case domain.TransitionSubmit:
		return models.EventSubmit
	default:
		return string(t)
	}
}
