package repositories_test

import (
	"context"
	"testing"
	"time"

	"payportal/internal/adapters/persistence/dbtest"
	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/persistence/repositories"
	"payportal/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:      username,
		FullName:      "Test User",
		Password:      "x",
		Role:          domain.RoleCustomer,
		IDNumber:      "enc-id-" + username,
		AccountNumber: "enc-acc-" + username,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newPayment(userID uint, amount string) *models.Payment {
	return &models.Payment{
		UserID:           userID,
		Amount:           decimal.RequireFromString(amount),
		Currency:         "USD",
		RecipientAccount: "enc-recipient",
		SwiftCode:        "enc-swift",
		Status:           domain.StatusPending,
	}
}

func TestPaymentRepository_CreateRecordsEvent(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewPaymentRepository(db)
	events := repositories.NewPaymentEventRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "alice01")

	p := newPayment(u.ID, "100.50")
	require.NoError(t, repo.Create(ctx, p, &models.PaymentEvent{EventType: models.EventCreate, ToStatus: domain.StatusPending}))
	assert.NotZero(t, p.ID)
	assert.Equal(t, uint(1), p.Version)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("100.50")))
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.DispatchedAt)

	history, err := events.ListByPaymentID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.EventCreate, history[0].EventType)
}

func TestPaymentRepository_UpdateStatusCompareAndSwap(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewPaymentRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "bob0001")

	p := newPayment(u.ID, "10")
	require.NoError(t, repo.Create(ctx, p, nil))

	require.NoError(t, repo.UpdateStatus(ctx, p.ID, 1, domain.StatusVerified, &models.PaymentEvent{EventType: models.EventVerify}))

	// same snapshot version again loses
	err := repo.UpdateStatus(ctx, p.ID, 1, domain.StatusVerified, &models.PaymentEvent{EventType: models.EventVerify})
	assert.ErrorIs(t, err, repositories.ErrStaleVersion)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, got.Status)
	assert.Equal(t, uint(2), got.Version)

	history, err := repositories.NewPaymentEventRepository(db).ListByPaymentID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "losing write must not leave an event behind")
}

func TestPaymentRepository_ListFiltersAndOrders(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewPaymentRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "carol01")

	var ids []uint
	for _, amt := range []string{"1", "2", "3"} {
		p := newPayment(u.ID, amt)
		require.NoError(t, repo.Create(ctx, p, nil))
		ids = append(ids, p.ID)
	}
	require.NoError(t, repo.UpdateStatus(ctx, ids[0], 1, domain.StatusVerified, nil))

	all, total, err := repo.List(ctx, repositories.PaymentFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")
	require.NotNil(t, all[0].User)
	assert.Equal(t, "carol01", all[0].User.Username)

	pending := domain.StatusPending
	filtered, total, err := repo.List(ctx, repositories.PaymentFilter{Status: &pending, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range filtered {
		assert.Equal(t, domain.StatusPending, p.Status)
	}

	page, total, err := repo.List(ctx, repositories.PaymentFilter{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	mine, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestPaymentRepository_Dispatch(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewPaymentRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "dave001")

	p := newPayment(u.ID, "5")
	require.NoError(t, repo.Create(ctx, p, nil))

	now := time.Now()
	pending, err := repo.ListUndispatched(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "only submitted payments are dispatchable")

	require.NoError(t, repo.UpdateStatus(ctx, p.ID, 1, domain.StatusVerified, nil))
	require.NoError(t, repo.UpdateStatus(ctx, p.ID, 2, domain.StatusSubmitted, nil))

	pending, err = repo.ListUndispatched(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkDispatched(ctx, p.ID, now, &models.PaymentEvent{EventType: models.EventDispatch}))
	assert.ErrorIs(t, repo.MarkDispatched(ctx, p.ID, now, nil), repositories.ErrStaleVersion)

	pending, err = repo.ListUndispatched(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, got.Status)
	assert.NotNil(t, got.DispatchedAt)
}

func TestPaymentRepository_DeferAndParkDispatch(t *testing.T) {
	db := dbtest.Open(t)
	repo := repositories.NewPaymentRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, "frank001")

	var ids []uint
	for i := 0; i < 2; i++ {
		p := newPayment(u.ID, "10")
		p.Status = domain.StatusSubmitted
		require.NoError(t, repo.Create(ctx, p, nil))
		ids = append(ids, p.ID)
	}
	now := time.Now()

	require.NoError(t, repo.DeferDispatch(ctx, ids[0], now.Add(time.Minute)))
	pending, err := repo.ListUndispatched(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[1], pending[0].ID, "a deferred row yields its place")

	pending, err = repo.ListUndispatched(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	got, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.DispatchAttempts)

	require.NoError(t, repo.ParkDispatch(ctx, ids[1], now, &models.PaymentEvent{EventType: models.EventDispatchFailed}))
	assert.ErrorIs(t, repo.ParkDispatch(ctx, ids[1], now, nil), repositories.ErrStaleVersion)

	pending, err = repo.ListUndispatched(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[0], pending[0].ID)

	events, err := repositories.NewPaymentEventRepository(db).ListByPaymentID(ctx, ids[1])
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventDispatchFailed, events[0].EventType)
}
