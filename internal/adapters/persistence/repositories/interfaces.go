package repositories

import (
	"context"
	"errors"
	"time"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/core/domain"
)

// ErrStaleVersion is returned when a compare-and-swap write matched no row
var ErrStaleVersion = errors.New("row version is stale")

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByIDNumberIndex(ctx context.Context, index string) (bool, error)
	ExistsByAccountNumberIndex(ctx context.Context, index string) (bool, error)
	ListUnindexed(ctx context.Context) ([]*models.User, error)
	ListAll(ctx context.Context) ([]*models.User, error)
	UpdateIndexes(ctx context.Context, id uint, idNumberIndex, accountNumberIndex string) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	Status *domain.Status
	Offset int
	Limit  int
}

// PaymentRepository defines payment repository interface. Every write
// records its PaymentEvent in the same database transaction.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment, event *models.PaymentEvent) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*models.Payment, int64, error)
	UpdateStatus(ctx context.Context, id, expectedVersion uint, status domain.Status, event *models.PaymentEvent) error
	ListUndispatched(ctx context.Context, now time.Time, limit int) ([]*models.Payment, error)
	MarkDispatched(ctx context.Context, id uint, at time.Time, event *models.PaymentEvent) error
	DeferDispatch(ctx context.Context, id uint, next time.Time) error
	ParkDispatch(ctx context.Context, id uint, at time.Time, event *models.PaymentEvent) error
}

// PaymentEventRepository reads payment history
type PaymentEventRepository interface {
	ListByPaymentID(ctx context.Context, paymentID uint) ([]*models.PaymentEvent, error)
}
