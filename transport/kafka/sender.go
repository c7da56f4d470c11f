package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hatsunemiku3939/versionrouter"
)

const writeTimeout = 10 * time.Second

// Writer is the subset of *kafka.Writer used by the Sender.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sender writes text messages to the topic named by the queue argument.
type Sender struct {
	writer Writer
	logger *zap.Logger
}

var _ versionrouter.Sender = (*Sender)(nil)

// NewWriter builds a synchronous writer without a default topic, so every
// message carries its own.
func NewWriter(brokerURLs []string, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokerURLs...),
		Balancer:               &kafka.LeastBytes{},
		WriteTimeout:           writeTimeout,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
		Logger:                 kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:            kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	}
}

// NewSender creates a Sender over writer.
func NewSender(writer Writer, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{writer: writer, logger: logger}
}

// SendTextMessage writes body to topic queue.
func (s *Sender) SendTextMessage(ctx context.Context, queue, body string) error {
	sendCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := s.writer.WriteMessages(sendCtx, kafka.Message{Topic: queue, Value: []byte(body)}); err != nil {
		s.logger.Error("failed to produce message to Kafka", zap.String("topic", queue), zap.Error(err))
		return fmt.Errorf("failed to produce message to Kafka: %w", err)
	}
	s.logger.Debug("message produced to Kafka", zap.String("topic", queue))
	return nil
}

// Close closes the underlying writer.
func (s *Sender) Close() error {
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}
