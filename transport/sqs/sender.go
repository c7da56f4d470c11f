package sqs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/hatsunemiku3939/versionrouter"
)

// SenderClient defines the SQS operations needed by the Sender.
type SenderClient interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Sender publishes text messages to SQS queues addressed by name or URL.
type Sender struct {
	client SenderClient

	mu   sync.RWMutex
	urls map[string]string
}

var _ versionrouter.Sender = (*Sender)(nil)

// NewSender creates a Sender.
func NewSender(client SenderClient) *Sender {
	return &Sender{client: client, urls: make(map[string]string)}
}

// SendTextMessage sends body to queue. queue may be a queue name, resolved
// once through GetQueueUrl and cached, or a full queue URL.
func (s *Sender) SendTextMessage(ctx context.Context, queue, body string) error {
	url, err := s.QueueURL(ctx, queue)
	if err != nil {
		return err
	}
	if _, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(body),
	}); err != nil {
		return fmt.Errorf("send message to %s: %w", queue, err)
	}
	return nil
}

// QueueURL resolves a queue name to its URL.
func (s *Sender) QueueURL(ctx context.Context, queue string) (string, error) {
	if strings.HasPrefix(queue, "https://") || strings.HasPrefix(queue, "http://") {
		return queue, nil
	}

	s.mu.RLock()
	url, ok := s.urls[queue]
	s.mu.RUnlock()
	if ok {
		return url, nil
	}

	out, err := s.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queue)})
	if err != nil {
		return "", fmt.Errorf("resolve queue url for %s: %w", queue, err)
	}
	url = aws.ToString(out.QueueUrl)

	s.mu.Lock()
	s.urls[queue] = url
	s.mu.Unlock()
	return url, nil
}
