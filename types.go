package versionrouter

import (
	"context"

	failure "github.com/hatsunemiku3939/versionrouter/policy/failure"
	"github.com/hatsunemiku3939/versionrouter/version"
)

// Message is a transport-neutral inbound text message.
type Message struct {
	// ID is the transport's identifier for the delivery (SQS MessageId, Kafka
	// topic/partition/offset, memory broker UUID). It is stable across
	// redeliveries of the same message where the transport allows it.
	ID string
	// Queue is the queue or topic the message was received from.
	Queue string
	// Body is the UTF-8 JSON text as sent by the producer.
	Body []byte
}

// Result is the outcome of processing one message.
type Result struct {
	MessageID string
	Queue     string
	// Version is the declared schema version, or "unknown" when it could not be read.
	Version string
	// Item is set only when the message was accumulated.
	Item *OrderItem
	// Kind classifies where processing failed; failure.FailNone on success.
	Kind failure.Kind
	// Ack is true when the transport should consider the message done
	// (either accumulated or permanently dropped). False asks for redelivery.
	Ack   bool
	Error error
}

// MessageProcessor is what transports invoke for every received message.
// Implementations must be safe for concurrent use.
type MessageProcessor interface {
	Process(ctx context.Context, msg Message) Result
}

// RouteState carries per-message context through the middleware chain and the
// processing core.
type RouteState struct {
	Message Message
	Payload *version.Payload
	Adapter SchemaAdapter
	Item    *OrderItem
}

// HandlerFunc is the function signature wrapped by middlewares.
type HandlerFunc func(ctx context.Context, state *RouteState) (Result, error)

// Middleware composes cross-cutting concerns around the processing core.
type Middleware func(next HandlerFunc) HandlerFunc

// SchemaAdapter parses one major version line of the product schema into an
// OrderItem. Adapters are stateless and shared across goroutines.
type SchemaAdapter interface {
	Major() int
	Parse(p version.Payload) (OrderItem, error)
}

// Sender publishes a text message to a named queue. Every transport provides one.
type Sender interface {
	SendTextMessage(ctx context.Context, queue, body string) error
}
