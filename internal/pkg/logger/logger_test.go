package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGet_DefaultsToNop(t *testing.T) {
	Set(nil)
	assert.NotNil(t, Get())
	Info("dropped")
}

func TestHelpers_WriteToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Info("payment verified", Uint("payment_id", 7), String("status", "Verified"))
	Warn("dispatch retry", Int("attempt", 2))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "payment verified", entries[0].Message)
		assert.Equal(t, uint64(7), entries[0].ContextMap()["payment_id"])
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}
