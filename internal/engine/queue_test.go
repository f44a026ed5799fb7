package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
)

func added(key string, v int64) Delivery {
	return Mutation(list.Added[ir.Value](key, ir.Int(v), list.First()))
}

func TestDeliveryQueue_FIFO(t *testing.T) {
	q := newDeliveryQueue()

	for _, k := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(added(k, 0)))
	}

	for _, want := range []string{"A", "B", "C"} {
		d, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, d.Key())
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok, "empty queue")
}

func TestDeliveryQueue_Len(t *testing.T) {
	q := newDeliveryQueue()
	assert.Equal(t, 0, q.Len())

	q.Enqueue(added("1", 1))
	q.Enqueue(added("2", 2))
	assert.Equal(t, 2, q.Len())

	q.TryDequeue()
	assert.Equal(t, 1, q.Len())
}

func TestDeliveryQueue_CloseRejectsEnqueue(t *testing.T) {
	q := newDeliveryQueue()
	q.Close()
	q.Close() // idempotent

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(added("late", 0)))
}

func TestDeliveryQueue_CloseWakesWaiter(t *testing.T) {
	q := newDeliveryQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
}

func TestDeliveryQueue_ConcurrentProducers(t *testing.T) {
	q := newDeliveryQueue()
	const producers, perProducer = 10, 100

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				q.Enqueue(added("k", int64(p*perProducer+i)))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
