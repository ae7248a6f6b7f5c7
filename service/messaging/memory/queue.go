package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbxxaxa/chipng/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	// DeadLetter keeps nacked messages for inspection.
	DeadLetter bool
	// InitialCapacity pre-sizes the backing slice.
	InitialCapacity int
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		DeadLetter:      true,
		InitialCapacity: 64,
	}
}

// Message implements messaging.Message for the in-memory queue
type Message[T any] struct {
	id        string
	payload   *T
	queue     *Queue[T]
	mu        sync.Mutex
	processed bool
	err       error
	createdAt time.Time
}

// ID returns the message identifier
func (m *Message[T]) ID() string {
	return m.id
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return m.payload
}

// CreatedAt returns the time the message was published
func (m *Message[T]) CreatedAt() time.Time {
	return m.createdAt
}

// Err returns the error recorded by Nack, if any
func (m *Message[T]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	return nil
}

// Nack records a processing failure; the message moves to the dead letter
// list when enabled and is never redelivered.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	if m.processed {
		m.mu.Unlock()
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.err = err
	m.mu.Unlock()

	if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

// Queue implements an unbounded in-memory messaging.Queue. Publish never
// blocks; Consume blocks on a signal channel rather than polling.
type Queue[T any] struct {
	mu       sync.Mutex
	messages []*Message[T]
	signal   chan struct{}
	closed   bool
	config   Config
	dlq      []*Message[T]
	dlqMu    sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.InitialCapacity <= 0 {
		config.InitialCapacity = DefaultConfig().InitialCapacity
	}
	return &Queue[T]{
		messages: make([]*Message[T], 0, config.InitialCapacity),
		signal:   make(chan struct{}, 1),
		config:   config,
	}
}

// Publish appends an item to the tail of the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{
		id:        uuid.New().String(),
		payload:   t,
		queue:     q,
		createdAt: time.Now(),
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return messaging.ErrQueueClosed
	}
	q.messages = append(q.messages, msg)
	q.notifyLocked()
	return nil
}

// Consume removes the item at the head of the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		q.mu.Lock()
		if len(q.messages) > 0 {
			msg := q.popLocked()
			if len(q.messages) > 0 {
				q.notifyLocked()
			}
			q.mu.Unlock()
			return msg, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, messaging.ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops intake and wakes every blocked consumer
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.signal)
	return nil
}

// Drain removes and returns every queued item in FIFO order
func (q *Queue[T]) Drain() []*Message[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	ret := q.messages
	q.messages = nil
	return ret
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

// DeadLetters returns a copy of the dead letter list
func (q *Queue[T]) DeadLetters() []*Message[T] {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	ret := make([]*Message[T], len(q.dlq))
	copy(ret, q.dlq)
	return ret
}

func (q *Queue[T]) popLocked() *Message[T] {
	msg := q.messages[0]
	q.messages[0] = nil
	q.messages = q.messages[1:]
	return msg
}

// notifyLocked wakes one blocked consumer; the signal holds at most one
// token, consumers re-signal while items remain.
func (q *Queue[T]) notifyLocked() {
	if q.closed {
		return
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
