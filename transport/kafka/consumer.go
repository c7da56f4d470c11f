// Package kafka connects the processor to Kafka topics through segmentio/kafka-go.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hatsunemiku3939/versionrouter"
)

const fetchErrorBackoff = time.Second

// Reader is the subset of *kafka.Reader used by the Consumer.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer feeds messages from one topic to a MessageProcessor. Offsets are
// committed only for acked messages; an unacked message is fetched again after
// a restart or rebalance.
type Consumer struct {
	reader    Reader
	topic     string
	processor versionrouter.MessageProcessor
	logger    *zap.Logger
}

// NewReader builds a consumer-group reader for topic.
func NewReader(brokerURLs []string, groupID, topic string, logger *zap.Logger) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:                brokerURLs,
		GroupID:                groupID,
		Topic:                  topic,
		MinBytes:               1,
		MaxBytes:               10e6,
		ReadBatchTimeout:       1 * time.Second,
		Logger:                 kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:            kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
		HeartbeatInterval:      3 * time.Second,
		PartitionWatchInterval: 5 * time.Second,
		MaxAttempts:            3,
	})
}

// NewConsumer creates a Consumer reading from reader.
func NewConsumer(reader Reader, topic string, processor versionrouter.MessageProcessor, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{reader: reader, topic: topic, processor: processor, logger: logger}
}

// MessageID identifies a Kafka message by topic, partition and offset.
func MessageID(msg kafka.Message) string {
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

// Start fetches and processes messages until ctx is canceled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Kafka consumer starting", zap.String("topic", c.topic))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Kafka consumer context canceled, stopping reader")
				return c.reader.Close()
			}
			c.logger.Error("failed to fetch message from Kafka", zap.Error(err))
			select {
			case <-time.After(fetchErrorBackoff):
			case <-ctx.Done():
			}
			continue
		}

		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	fields := []zap.Field{
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	}

	res := c.processor.Process(ctx, versionrouter.Message{
		ID:    MessageID(msg),
		Queue: msg.Topic,
		Body:  msg.Value,
	})
	if !res.Ack {
		c.logger.Warn("message not acknowledged, will not commit offset", fields...)
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit offset for Kafka message", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("Kafka message offset committed", fields...)
}
