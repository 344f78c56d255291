package notify_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/go-kit/kit/metrics/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supdem/supdem/internal/notify"
)

func TestQueueFIFO(t *testing.T) {
	q := notify.NewQueue(4)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, q.Enqueue(fmt.Sprintf("msg %d\n", i)))
	}
	require.Equal(t, 3, q.Len())

	for i := 0; i < 3; i++ {
		msg, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("msg %d\n", i), msg)
	}
	require.Zero(t, q.Len())
}

func TestQueueDropsWhenFull(t *testing.T) {
	m := &notify.Metrics{
		Enqueued: generic.NewCounter("enqueued"),
		Dropped:  generic.NewCounter("dropped"),
	}
	q := notify.NewQueue(2, notify.WithMetrics(m))

	require.True(t, q.Enqueue("a"))
	require.True(t, q.Enqueue("b"))
	require.False(t, q.Enqueue("c"))
	require.Equal(t, 2, q.Len())
	assert.Equal(t, float64(2), m.Enqueued.(*generic.Counter).Value())
	assert.Equal(t, float64(1), m.Dropped.(*generic.Counter).Value())

	// the oldest messages survive, the overflow is gone
	ctx := context.Background()
	msg, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", msg)

	// one slot freed, wrap around the ring
	require.True(t, q.Enqueue("d"))
	msg, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", msg)
	msg, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d", msg)
}

func TestQueueDefaultCapacity(t *testing.T) {
	q := notify.NewQueue(0)
	require.Equal(t, notify.DefaultCapacity, q.Cap())
	for i := 0; i < notify.DefaultCapacity; i++ {
		require.True(t, q.Enqueue("x"))
	}
	require.False(t, q.Enqueue("overflow"))
}

func TestQueueDequeueBlocksUntilEnqueue(t *testing.T) {
	defer leaktest.Check(t)()

	q := notify.NewQueue(8)
	got := make(chan string, 1)
	go func() {
		msg, err := q.Dequeue(context.Background())
		if err == nil {
			got <- msg
		}
	}()

	select {
	case <-got:
		t.Fatal("Dequeue returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	require.True(t, q.Enqueue("hello\n"))
	select {
	case msg := <-got:
		require.Equal(t, "hello\n", msg)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake up")
	}
}

func TestQueueDequeueCanceled(t *testing.T) {
	defer leaktest.Check(t)()

	q := notify.NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		errCh <- err
	}()
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestQueueCloseDrainsRemaining(t *testing.T) {
	q := notify.NewQueue(4)
	require.True(t, q.Enqueue("a"))
	require.True(t, q.Enqueue("b"))
	q.Close()
	require.False(t, q.Enqueue("c"))

	var got []string
	err := q.Drain(context.Background(), func(msg string) error {
		got = append(got, msg)
		return nil
	})
	require.ErrorIs(t, err, notify.ErrQueueClosed)
	require.Equal(t, []string{"a", "b"}, got)
}

func TestQueueDrainStopsOnDeliverError(t *testing.T) {
	q := notify.NewQueue(4)
	require.True(t, q.Enqueue("a"))
	require.True(t, q.Enqueue("b"))

	errBroken := errors.New("broken pipe")
	calls := 0
	err := q.Drain(context.Background(), func(string) error {
		calls++
		return errBroken
	})
	require.ErrorIs(t, err, errBroken)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, q.Len())
}

// A consumer stuck in deliver must not stop producers; they fill the queue
// and then start dropping.
func TestQueueSlowConsumerDoesNotBlockProducers(t *testing.T) {
	defer leaktest.Check(t)()

	q := notify.NewQueue(3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inDeliver := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- q.Drain(ctx, func(string) error {
			select {
			case inDeliver <- struct{}{}:
			default:
			}
			<-release
			return nil
		})
	}()

	require.True(t, q.Enqueue("first"))
	<-inDeliver

	accepted := 0
	for i := 0; i < 10; i++ {
		if q.Enqueue("more") {
			accepted++
		}
	}
	require.Equal(t, 3, accepted)

	close(release)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestQueueConcurrentProducers(t *testing.T) {
	defer leaktest.Check(t)()

	const producers, perProducer = 8, 50
	q := notify.NewQueue(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(fmt.Sprintf("%d:%d", p, i))
			}
		}(p)
	}

	received := make(map[string]bool)
	lastSeen := make(map[int]int)
	ctx := context.Background()
	for len(received) < producers*perProducer {
		msg, err := q.Dequeue(ctx)
		require.NoError(t, err)
		var p, i int
		_, err = fmt.Sscanf(msg, "%d:%d", &p, &i)
		require.NoError(t, err)
		if last, ok := lastSeen[p]; ok {
			require.Greater(t, i, last, "per-producer order must be preserved")
		}
		lastSeen[p] = i
		received[msg] = true
	}
	wg.Wait()
}
