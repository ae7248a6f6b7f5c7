package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rbxxaxa/chipng/service/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestPayload struct {
	ID      string
	Message string
	Count   int
}

func TestQueue(t *testing.T) {
	queue := NewQueue[TestPayload](DefaultConfig())
	ctx := context.Background()
	payload := TestPayload{
		ID:      "test-1",
		Message: "Hello, world!",
		Count:   1,
	}

	err := queue.Publish(ctx, &payload)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.Equal(t, 0, queue.Size())
	assert.NotEmpty(t, message.ID())

	// payload ownership moves with the message, it is not copied
	assert.Same(t, &payload, message.T())

	err = message.Ack()
	assert.NoError(t, err)

	// Test double ack (should error)
	err = message.Ack()
	assert.Error(t, err)
	assert.Error(t, message.Nack(nil))
}

func TestQueueFIFO(t *testing.T) {
	queue := NewQueue[TestPayload](Config{InitialCapacity: 1})
	ctx := context.Background()

	// publishing far beyond the initial capacity never blocks
	for i := 0; i < 1000; i++ {
		require.NoError(t, queue.Publish(ctx, &TestPayload{Count: i}))
	}
	assert.Equal(t, 1000, queue.Size())

	for i := 0; i < 1000; i++ {
		msg, err := queue.Consume(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, msg.T().Count)
		assert.NoError(t, msg.Ack())
	}
}

func TestQueueNackDeadLetter(t *testing.T) {
	testCases := []struct {
		name       string
		deadLetter bool
		expectDLQ  int
	}{
		{name: "dead letter enabled", deadLetter: true, expectDLQ: 1},
		{name: "dead letter disabled", deadLetter: false, expectDLQ: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			queue := NewQueue[TestPayload](Config{DeadLetter: tc.deadLetter})
			ctx := context.Background()
			require.NoError(t, queue.Publish(ctx, &TestPayload{ID: "bad"}))

			msg, err := queue.Consume(ctx)
			require.NoError(t, err)
			cause := errors.New("bleed: invalid dimensions")
			assert.NoError(t, msg.Nack(cause))

			// nacked messages are not redelivered
			assert.Equal(t, 0, queue.Size())
			assert.Equal(t, tc.expectDLQ, queue.DLQSize())
			if tc.expectDLQ > 0 {
				dead := queue.DeadLetters()
				assert.Equal(t, "bad", dead[0].T().ID)
				assert.Equal(t, cause, dead[0].Err())
			}
		})
	}
}

func TestQueueConsumeBlocks(t *testing.T) {
	queue := NewQueue[TestPayload](DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	msg, err := queue.Consume(ctx)
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	received := make(chan string, 1)
	go func() {
		msg, err := queue.Consume(context.Background())
		if err == nil {
			received <- msg.T().ID
		}
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, queue.Publish(context.Background(), &TestPayload{ID: "late"}))
	select {
	case id := <-received:
		assert.Equal(t, "late", id)
	case <-time.After(time.Second):
		t.Fatal("consumer was not woken up")
	}
}

func TestQueueClose(t *testing.T) {
	queue := NewQueue[TestPayload](DefaultConfig())
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &TestPayload{ID: "a"}))
	require.NoError(t, queue.Publish(ctx, &TestPayload{ID: "b"}))
	require.NoError(t, queue.Close())
	require.NoError(t, queue.Close())

	assert.ErrorIs(t, queue.Publish(ctx, &TestPayload{ID: "c"}), messaging.ErrQueueClosed)

	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", msg.T().ID)

	drained := queue.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, "b", drained[0].T().ID)

	_, err = queue.Consume(ctx)
	assert.ErrorIs(t, err, messaging.ErrQueueClosed)
}

func TestConcurrentConsumers(t *testing.T) {
	queue := NewQueue[TestPayload](DefaultConfig())
	ctx := context.Background()

	const (
		consumers = 4
		total     = 200
	)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]int)
	)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				msg, err := queue.Consume(ctx)
				if err != nil {
					return
				}
				mu.Lock()
				seen[msg.T().ID]++
				mu.Unlock()
				_ = msg.Ack()
			}
		}()
	}
	for i := 0; i < total; i++ {
		require.NoError(t, queue.Publish(ctx, &TestPayload{ID: fmt.Sprintf("msg-%d", i)}))
	}
	require.NoError(t, queue.Close())
	wg.Wait()

	assert.Len(t, seen, total)
	for id, count := range seen {
		assert.Equal(t, 1, count, "message %s delivered more than once", id)
	}
}
