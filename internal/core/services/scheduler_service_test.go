package services

import (
	"testing"

	"payportal/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerService_RejectsBadSchedule(t *testing.T) {
	env := newTestEnv(t)
	dispatch := NewSwiftDispatchService(env.paymentRepo, env.cipher, &recordingPublisher{}, 10)

	s := NewSchedulerService(dispatch, env.auth, config.DispatchConfig{Schedule: "not a schedule", CleanupSchedule: "@daily"})
	assert.Error(t, s.Start())

	s = NewSchedulerService(dispatch, env.auth, config.DispatchConfig{Schedule: "@every 1h", CleanupSchedule: "@daily"})
	require.NoError(t, s.Start())
	s.Stop()
}
