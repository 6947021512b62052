package swift

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"payportal/internal/config"
	"payportal/internal/core/domain"
	"payportal/internal/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafka.Writer used here
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes instructions to the outbound SWIFT topic, keyed by
// payment ID so retries of one payment land on one partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

// NewKafkaPublisher creates a synchronous producer for cfg.Topic
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	logger.Info("kafka swift publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		logger.String("topic", cfg.Topic),
	)
	return newKafkaPublisher(writer, cfg.Topic, cfg.WriteTimeout)
}

func newKafkaPublisher(w messageWriter, topic string, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaPublisher{writer: w, topic: topic, timeout: timeout}
}

// Publish writes one instruction, bounded by the configured write timeout
func (p *KafkaPublisher) Publish(ctx context.Context, instruction *domain.SwiftInstruction) error {
	value, err := json.Marshal(instruction)
	if err != nil {
		return fmt.Errorf("encode swift instruction: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(strconv.FormatUint(uint64(instruction.PaymentID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		logger.Error("failed to close kafka publisher", logger.Err(err))
		return err
	}
	return nil
}
