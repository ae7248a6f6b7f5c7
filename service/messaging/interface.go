package messaging

import (
	"context"
	"errors"
)

// ErrQueueClosed is returned by Publish after Close, and by Consume once a
// closed queue has been drained.
var ErrQueueClosed = errors.New("messaging: queue closed")

// Queue represents an abstract FIFO message queue for any payload type.
type Queue[T any] interface {
	// Publish appends a message with the payload to the tail of the queue.
	Publish(ctx context.Context, t *T) error

	// Consume removes and returns the message at the head of the queue,
	// blocking until one is available, the context is done or the queue is
	// closed and empty.
	Consume(ctx context.Context) (Message[T], error)

	// Close stops intake; messages already queued can still be consumed.
	Close() error
}

// Message represents a message retrieved from a queue.
type Message[T any] interface {
	// ID returns the message identifier.
	ID() string

	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing of this message.
	Ack() error

	// Nack records a processing failure for this message.
	Nack(err error) error
}
