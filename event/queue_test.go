package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/enso/parameter"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Push(Event{Topic: TopicKey, Payload: i})
	}
	assert.Equal(t, 5, q.Len())

	events := q.Drain()
	assert.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, i, ev.Payload)
	}
	assert.Nil(t, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_OverflowDropsOldest(t *testing.T) {
	q := NewQueue()
	total := parameter.EventQueueSize + 10
	for i := 0; i < total; i++ {
		q.Push(Event{Payload: i})
	}
	events := q.Drain()
	assert.Len(t, events, parameter.EventQueueSize)
	assert.Equal(t, 10, events[0].Payload)
	assert.Equal(t, uint64(10), q.Dropped())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 4, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Event{Topic: TopicTimer})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, q.Drain(), producers*perProducer)
}

// reserve claims the next slot the way Push does, without publishing it
func (q *Queue) reserve() uint64 {
	return q.tail.Add(1) - 1
}

func (q *Queue) publish(slot uint64, ev Event) {
	idx := slot & parameter.EventBufferMask
	q.events[idx] = ev
	q.published[idx].Store(true)
}

func TestQueue_DrainStopsAtUnpublishedSlot(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Payload: 0})
	q.Push(Event{Payload: 1})
	slow := q.reserve()
	q.Push(Event{Payload: 3})

	events := q.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Payload)
	assert.Equal(t, 1, events[1].Payload)
	assert.Equal(t, 2, q.Len(), "the gap and the event behind it stay queued")
	assert.Nil(t, q.Drain(), "nothing drains past a half-written slot")

	q.publish(slow, Event{Payload: 2})
	events = q.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[0].Payload)
	assert.Equal(t, 3, events[1].Payload)
	assert.Zero(t, q.Len())
}

func TestQueue_DrainWhileProducing(t *testing.T) {
	type item struct{ producer, seq int }
	q := NewQueue()
	const producers, perProducer = 4, 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Event{Payload: item{p, i}})
			}
		}()
	}

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	got := 0
	deadline := time.Now().Add(5 * time.Second)
	for got < producers*perProducer && time.Now().Before(deadline) {
		for _, ev := range q.Drain() {
			it := ev.Payload.(item)
			require.Greater(t, it.seq, last[it.producer], "per-producer order")
			last[it.producer] = it.seq
			got++
		}
	}
	wg.Wait()
	assert.Equal(t, producers*perProducer, got)
	assert.Zero(t, q.Dropped())
}
