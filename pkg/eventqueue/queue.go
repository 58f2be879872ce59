package eventqueue

import "container/heap"

// Token is a totally ordered priority marker a Discipline assigns to an
// event at push time. The default FIFO discipline uses a monotonic
// sequence number so Less reduces to insertion order.
type Token interface {
	Less(other Token) bool
}

// seqToken is the FIFO discipline's token.
type seqToken uint64

func (a seqToken) Less(other Token) bool { return a < other.(seqToken) }

// Discipline assigns a Token to each pushed event. Implementations may
// reorder delivery arbitrarily, so long as the token order is a total
// order — e.g. sampled Poisson timestamps for a probabilistic timing
// model.
type Discipline interface {
	Token(e Event, seq uint64) Token
}

// FIFO is the default discipline: strict insertion order.
type FIFO struct{}

func (FIFO) Token(_ Event, seq uint64) Token { return seqToken(seq) }

type item struct {
	event Event
	token Token
}

type itemHeap []item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].token.Less(h[j].token) }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Queue is the kernel's single event queue: FIFO by default, or reordered
// by a pluggable Discipline. The kernel owns the only Queue instance in a
// simulation; there is no concurrent access.
type Queue struct {
	items      itemHeap
	discipline Discipline
	seq        uint64
}

// New creates an empty FIFO queue.
func New() *Queue {
	return &Queue{discipline: FIFO{}}
}

// NewWithDiscipline creates an empty queue using d to order events.
func NewWithDiscipline(d Discipline) *Queue {
	return &Queue{discipline: d}
}

// Push enqueues e.
func (q *Queue) Push(e Event) {
	tok := q.discipline.Token(e, q.seq)
	q.seq++
	heap.Push(&q.items, item{event: e, token: tok})
}

// PushAll enqueues every event in es, in order.
func (q *Queue) PushAll(es []Event) {
	for _, e := range es {
		q.Push(e)
	}
}

// Pop removes and returns the next event in discipline order, reporting
// false if the queue is empty.
func (q *Queue) Pop() (Event, bool) {
	if q.items.Len() == 0 {
		return Event{}, false
	}
	it := heap.Pop(&q.items).(item)
	return it.event, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return q.items.Len() }

// Empty reports whether the queue has no pending events.
func (q *Queue) Empty() bool { return q.items.Len() == 0 }
