// Package sqs connects the processor to Amazon SQS queues.
package sqs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/hatsunemiku3939/versionrouter"
)

// --- SQS Consumer Configuration ---
const (
	// defaultMaxMessages is the maximum number of messages to retrieve in one SQS API call.
	defaultMaxMessages = 5
	// defaultWaitTimeSeconds enables SQS Long Polling, reducing cost and empty responses.
	defaultWaitTimeSeconds = 10
	// deleteTimeout sets a client-side timeout for the DeleteMessage API call.
	deleteTimeout = 5 * time.Second
	// defaultProcessingTimeout sets a deadline for processing a single message.
	// This should be less than the container's graceful shutdown period.
	defaultProcessingTimeout = 30 * time.Second
	// defaultReceiveErrorBackoff is how long to wait after a failed ReceiveMessage call.
	defaultReceiveErrorBackoff = 2 * time.Second
)

// ConsumerClient defines the SQS operations needed by the Consumer.
// This allows for easier testing by mocking the SQS client.
type ConsumerClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// ConsumerConfig tunes polling. Zero fields take their defaults.
type ConsumerConfig struct {
	MaxMessages         int32
	WaitTimeSeconds     int32
	ProcessingTimeout   time.Duration
	ReceiveErrorBackoff time.Duration
}

// Consumer encapsulates the SQS polling and message processing logic.
type Consumer struct {
	client    ConsumerClient
	queueURL  string
	processor versionrouter.MessageProcessor
	cfg       ConsumerConfig
	logger    *zap.Logger
}

// NewConsumer creates a new SQS message consumer.
func NewConsumer(client ConsumerClient, queueURL string, processor versionrouter.MessageProcessor, cfg ConsumerConfig, logger *zap.Logger) *Consumer {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = defaultMaxMessages
	}
	if cfg.WaitTimeSeconds <= 0 {
		cfg.WaitTimeSeconds = defaultWaitTimeSeconds
	}
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = defaultProcessingTimeout
	}
	if cfg.ReceiveErrorBackoff <= 0 {
		cfg.ReceiveErrorBackoff = defaultReceiveErrorBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		client:    client,
		queueURL:  queueURL,
		processor: processor,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start begins the consumer's polling loop. It blocks until the context is
// canceled and then waits for in-flight messages.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("SQS consumer started", zap.String("queue_url", c.queueURL))
	var wg sync.WaitGroup

	for {
		if ctx.Err() != nil {
			c.logger.Info("shutdown initiated, no longer polling for new messages")
			break
		}

		output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: c.cfg.MaxMessages,
			WaitTimeSeconds:     c.cfg.WaitTimeSeconds,
		})

		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.logger.Info("context canceled, stopping poller")
				break
			}
			c.logger.Error("failed to receive messages, retrying", zap.Error(err))
			select {
			case <-time.After(c.cfg.ReceiveErrorBackoff):
			case <-ctx.Done():
			}
			continue
		}

		if len(output.Messages) == 0 {
			continue
		}

		c.logger.Debug("received messages", zap.Int("count", len(output.Messages)))

		for _, msg := range output.Messages {
			wg.Add(1)
			go func(m types.Message) {
				defer wg.Done()
				msgCtx, cancelMsg := context.WithTimeout(context.Background(), c.cfg.ProcessingTimeout)
				defer cancelMsg()
				c.processMessage(msgCtx, &m)
			}(msg)
		}
	}

	c.logger.Info("waiting for in-flight messages to be processed")
	wg.Wait()
	c.logger.Info("graceful shutdown complete")
}

// processMessage processes a single SQS message and deletes it when the
// processor acks it.
func (c *Consumer) processMessage(ctx context.Context, msg *types.Message) {
	if msg.Body == nil {
		c.logger.Error("received message with empty body", zap.String("message_id", aws.ToString(msg.MessageId)))
		return
	}

	res := c.processor.Process(ctx, versionrouter.Message{
		ID:    aws.ToString(msg.MessageId),
		Queue: c.queueURL,
		Body:  []byte(*msg.Body),
	})

	if !res.Ack {
		c.logger.Info("leaving message for redelivery after visibility timeout", zap.String("message_id", res.MessageID))
		return
	}

	deleteCtx, cancelDelete := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancelDelete()

	_, err := c.client.DeleteMessage(deleteCtx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete message", zap.String("message_id", res.MessageID), zap.Error(err))
		return
	}
	c.logger.Debug("deleted message", zap.String("message_id", res.MessageID))
}
