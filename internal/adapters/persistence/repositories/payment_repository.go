package repositories

import (
	"context"
	"time"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/core/domain"

	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a payment and its CREATE event
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if payment.Version == 0 {
			payment.Version = 1
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		event.PaymentID = payment.ID
		return tx.Create(event).Error
	})
}

// GetByID gets a payment by ID
func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByUser lists a customer's payments, newest first
func (r *paymentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// List lists payments with an optional status filter, newest first
func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	byStatus := func(db *gorm.DB) *gorm.DB {
		if filter.Status != nil {
			return db.Where("status = ?", *filter.Status)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.Payment{}).Scopes(byStatus).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Scopes(byStatus).
		Preload("User").
		Order("created_at DESC, id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// UpdateStatus writes a new status only if the row still carries
// expectedVersion, bumping the version and recording the event atomically.
func (r *paymentRepository) UpdateStatus(ctx context.Context, id, expectedVersion uint, status domain.Status, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(map[string]any{
				"status":  status,
				"version": gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleVersion
		}
		if event == nil {
			return nil
		}
		event.PaymentID = id
		return tx.Create(event).Error
	})
}

// ListUndispatched returns submitted payments not yet handed to the SWIFT
// publisher whose retry time has come, oldest first. Parked payments are
// never returned.
func (r *paymentRepository) ListUndispatched(ctx context.Context, now time.Time, limit int) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusSubmitted).
		Where("dispatched_at IS NULL AND dispatch_failed_at IS NULL").
		Where("next_dispatch_at IS NULL OR next_dispatch_at <= ?", now).
		Order("id ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// MarkDispatched stamps dispatched_at once; a row already stamped yields ErrStaleVersion
func (r *paymentRepository) MarkDispatched(ctx context.Context, id uint, at time.Time, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND dispatched_at IS NULL", id).
			Update("dispatched_at", at)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleVersion
		}
		if event == nil {
			return nil
		}
		event.PaymentID = id
		return tx.Create(event).Error
	})
}

// DeferDispatch counts a failed hand-off and holds the payment back until next
func (r *paymentRepository) DeferDispatch(ctx context.Context, id uint, next time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND dispatched_at IS NULL", id).
		Updates(map[string]any{
			"dispatch_attempts": gorm.Expr("dispatch_attempts + 1"),
			"next_dispatch_at":  next,
		}).Error
}

// ParkDispatch removes an undeliverable payment from dispatch for good and
// records why; a row already dispatched or parked yields ErrStaleVersion
func (r *paymentRepository) ParkDispatch(ctx context.Context, id uint, at time.Time, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND dispatched_at IS NULL AND dispatch_failed_at IS NULL", id).
			Update("dispatch_failed_at", at)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleVersion
		}
		if event == nil {
			return nil
		}
		event.PaymentID = id
		return tx.Create(event).Error
	})
}

// paymentEventRepository implements PaymentEventRepository interface
type paymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepository{db: db}
}

// ListByPaymentID returns a payment's history, oldest first
func (r *paymentEventRepository) ListByPaymentID(ctx context.Context, paymentID uint) ([]*models.PaymentEvent, error) {
	var events []*models.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
