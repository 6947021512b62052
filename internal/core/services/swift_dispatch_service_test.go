package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	fail bool
	got  []*domain.SwiftInstruction
}

func (p *recordingPublisher) Publish(_ context.Context, in *domain.SwiftInstruction) error {
	if p.fail {
		return errors.New("gateway unavailable")
	}
	p.got = append(p.got, in)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func submittedPayment(t *testing.T, env *testEnv) uint {
	t.Helper()
	ctx := context.Background()
	uid := registerCustomer(t, env, "janedoe1", "8001015009087", "1000000001")
	p, err := env.payments.Create(ctx, customer(uid), samplePayment())
	require.NoError(t, err)
	_, err = env.review.Verify(ctx, employee(9), p.ID)
	require.NoError(t, err)
	_, err = env.review.SubmitToSwift(ctx, employee(9), p.ID)
	require.NoError(t, err)
	return p.ID
}

func TestSwiftDispatch_PublishesAndStamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := submittedPayment(t, env)

	pub := &recordingPublisher{}
	svc := NewSwiftDispatchService(env.paymentRepo, env.cipher, pub, 10)

	res, err := svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)
	require.Len(t, pub.got, 1)
	assert.Equal(t, "ABSAZAJJ", pub.got[0].SwiftCode)
	assert.Equal(t, "123456789012", pub.got[0].RecipientAccount)

	row, err := env.paymentRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, row.DispatchedAt)
	assert.Equal(t, domain.StatusSubmitted, row.Status)

	// nothing left to send
	res, err = svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Published)
	assert.Len(t, pub.got, 1)
}

// freezeClock pins timeNow for the test and returns a function that moves it.
func freezeClock(t *testing.T) func(time.Duration) {
	t.Helper()
	now := time.Now()
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })
	return func(d time.Duration) { now = now.Add(d) }
}

func TestSwiftDispatch_FailureLeavesPaymentForRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := submittedPayment(t, env)
	advance := freezeClock(t)

	pub := &recordingPublisher{fail: true}
	svc := NewSwiftDispatchService(env.paymentRepo, env.cipher, pub, 10)

	res, err := svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	row, err := env.paymentRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, row.DispatchedAt)
	assert.Nil(t, row.DispatchFailedAt)
	assert.Equal(t, uint(1), row.DispatchAttempts)
	assert.Equal(t, domain.StatusSubmitted, row.Status)

	// held back until the backoff elapses
	pub.fail = false
	res, err = svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Published)

	advance(dispatchRetryBase)
	res, err = svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)
}

func TestSwiftDispatch_UndecryptableRowDoesNotBlockQueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	freezeClock(t)

	corrupt := submittedPayment(t, env)
	require.NoError(t, env.db.Model(&models.Payment{}).Where("id = ?", corrupt).
		Update("recipient_account", "AAAA.BBBB.CCCC").Error)

	owner, err := env.userRepo.GetByUsername(ctx, "janedoe1")
	require.NoError(t, err)
	p, err := env.payments.Create(ctx, customer(owner.ID), samplePayment())
	require.NoError(t, err)
	_, err = env.review.Verify(ctx, employee(9), p.ID)
	require.NoError(t, err)
	_, err = env.review.SubmitToSwift(ctx, employee(9), p.ID)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	svc := NewSwiftDispatchService(env.paymentRepo, env.cipher, pub, 1)

	res, err := svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Parked)

	res, err = svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)
	require.Len(t, pub.got, 1)
	assert.Equal(t, p.ID, pub.got[0].PaymentID)

	parked, err := env.paymentRepo.GetByID(ctx, corrupt)
	require.NoError(t, err)
	assert.NotNil(t, parked.DispatchFailedAt)
	assert.Nil(t, parked.DispatchedAt)
	assert.Equal(t, domain.StatusSubmitted, parked.Status)

	events, err := env.eventRepo.ListByPaymentID(ctx, corrupt)
	require.NoError(t, err)
	assert.Equal(t, models.EventDispatchFailed, events[len(events)-1].EventType)

	// parked rows stay out of later runs
	res, err = svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Published+res.Failed+res.Parked)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, dispatchRetryBase, retryDelay(1))
	assert.Equal(t, 2*dispatchRetryBase, retryDelay(2))
	assert.Equal(t, 4*dispatchRetryBase, retryDelay(3))
	assert.Equal(t, dispatchRetryMax, retryDelay(20))
}

func TestSwiftDispatch_IgnoresUnsubmitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uid := registerCustomer(t, env, "janedoe1", "8001015009087", "1000000001")
	_, err := env.payments.Create(ctx, customer(uid), samplePayment())
	require.NoError(t, err)

	pub := &recordingPublisher{}
	res, err := NewSwiftDispatchService(env.paymentRepo, env.cipher, pub, 10).DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Published)
	assert.Empty(t, pub.got)
}
