package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/persistence/repositories"
	"payportal/internal/core/domain"
	"payportal/internal/pkg/fieldcrypt"
	"payportal/internal/pkg/logger"
	"payportal/internal/pkg/metrics"
)

// SwiftPublisher hands instructions to the SWIFT network collaborator.
// Publish must honour ctx cancellation.
type SwiftPublisher interface {
	Publish(ctx context.Context, instruction *domain.SwiftInstruction) error
	Close() error
}

// DispatchResult summarises one dispatch run
type DispatchResult struct {
	Published int
	Failed    int
	Parked    int
}

// Retry backoff for payments whose publish failed
const (
	dispatchRetryBase = 30 * time.Second
	dispatchRetryMax  = time.Hour
)

// errUndeliverable marks a payment that no retry can deliver
var errUndeliverable = errors.New("payment cannot be dispatched")

// SwiftDispatchService delivers payments that reached Submitted to SWIFT.
// Delivery never changes a payment's status; it only stamps dispatched_at.
// A payment whose publish fails stays undispatched and is retried with
// exponential backoff, so delivery is at-least-once. A payment whose fields
// cannot be decrypted is parked with a DISPATCH_FAILED event.
type SwiftDispatchService struct {
	paymentRepo repositories.PaymentRepository
	cipher      *fieldcrypt.Cipher
	publisher   SwiftPublisher
	batchSize   int
}

// NewSwiftDispatchService creates a new dispatch service
func NewSwiftDispatchService(
	paymentRepo repositories.PaymentRepository,
	cipher *fieldcrypt.Cipher,
	publisher SwiftPublisher,
	batchSize int,
) *SwiftDispatchService {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SwiftDispatchService{
		paymentRepo: paymentRepo,
		cipher:      cipher,
		publisher:   publisher,
		batchSize:   batchSize,
	}
}

// DispatchPending publishes one batch of due, undispatched payments
func (s *SwiftDispatchService) DispatchPending(ctx context.Context) (*DispatchResult, error) {
	payments, err := s.paymentRepo.ListUndispatched(ctx, timeNow(), s.batchSize)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{}
	for _, p := range payments {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		err := s.dispatch(ctx, p)
		switch {
		case err == nil:
			result.Published++
			metrics.SwiftDispatchTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		case errors.Is(err, errUndeliverable):
			result.Parked++
			metrics.SwiftDispatchTotal.WithLabelValues(metrics.ResultRejected).Inc()
			logger.Error("swift dispatch parked payment", logger.Uint("payment_id", p.ID), logger.Err(err))
			s.park(ctx, p)
		default:
			result.Failed++
			metrics.SwiftDispatchTotal.WithLabelValues(metrics.ResultFailure).Inc()
			delay := retryDelay(p.DispatchAttempts + 1)
			logger.Warn("swift dispatch failed",
				logger.Uint("payment_id", p.ID),
				logger.Duration("retry_in", delay),
				logger.Err(err),
			)
			if err := s.paymentRepo.DeferDispatch(ctx, p.ID, timeNow().Add(delay)); err != nil {
				logger.Error("swift dispatch could not schedule retry", logger.Uint("payment_id", p.ID), logger.Err(err))
			}
		}
	}

	if len(payments) > 0 {
		logger.Info("swift dispatch run finished",
			logger.Int("published", result.Published),
			logger.Int("failed", result.Failed),
			logger.Int("parked", result.Parked),
		)
	}
	return result, nil
}

func (s *SwiftDispatchService) dispatch(ctx context.Context, p *models.Payment) error {
	if !p.Status.IsTerminal() {
		return fmt.Errorf("%w: status %q", errUndeliverable, p.Status)
	}
	recipient, err := s.cipher.Decrypt(p.RecipientAccount)
	if err != nil {
		return fmt.Errorf("%w: decrypt recipient account: %v", errUndeliverable, err)
	}
	swift, err := s.cipher.Decrypt(p.SwiftCode)
	if err != nil {
		return fmt.Errorf("%w: decrypt swift code: %v", errUndeliverable, err)
	}

	instruction := &domain.SwiftInstruction{
		PaymentID:        p.ID,
		Amount:           p.Amount.StringFixed(2),
		Currency:         p.Currency,
		RecipientAccount: recipient,
		SwiftCode:        swift,
		SubmittedAt:      p.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, instruction); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	event := &models.PaymentEvent{
		EventType:  models.EventDispatch,
		FromStatus: p.Status,
		ToStatus:   p.Status,
	}
	err = s.paymentRepo.MarkDispatched(ctx, p.ID, timeNow(), event)
	if errors.Is(err, repositories.ErrStaleVersion) {
		// another run stamped it first
		return nil
	}
	return err
}

func (s *SwiftDispatchService) park(ctx context.Context, p *models.Payment) {
	event := &models.PaymentEvent{
		EventType:  models.EventDispatchFailed,
		FromStatus: p.Status,
		ToStatus:   p.Status,
	}
	err := s.paymentRepo.ParkDispatch(ctx, p.ID, timeNow(), event)
	if err != nil && !errors.Is(err, repositories.ErrStaleVersion) {
		logger.Error("swift dispatch could not park payment", logger.Uint("payment_id", p.ID), logger.Err(err))
	}
}

// retryDelay doubles from dispatchRetryBase per attempt, capped at dispatchRetryMax
func retryDelay(attempt uint) time.Duration {
	delay := dispatchRetryBase
	for i := uint(1); i < attempt; i++ {
		delay *= 2
		if delay >= dispatchRetryMax {
			return dispatchRetryMax
		}
	}
	return delay
}
