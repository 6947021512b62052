// Package swift delivers submitted payments to the SWIFT network gateway.
package swift

import (
	"context"
	"strconv"

	"payportal/internal/core/domain"
	"payportal/internal/pkg/logger"
)

// LogPublisher records instructions in the log only. It stands in for the
// gateway when no broker is configured. Sensitive fields are not logged.
type LogPublisher struct{}

// NewLogPublisher creates a log-only publisher
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Publish logs the instruction
func (p *LogPublisher) Publish(ctx context.Context, instruction *domain.SwiftInstruction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("swift instruction published",
		logger.String("sink", "log"),
		logger.String("payment_id", strconv.FormatUint(uint64(instruction.PaymentID), 10)),
		logger.String("amount", instruction.Amount),
		logger.String("currency", instruction.Currency),
	)
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error { return nil }
