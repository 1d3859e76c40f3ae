package mediareader

import (
	"sync"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/stats"
)

// Queue is an unbounded FIFO of decoded units. The reader appends from the
// consumer goroutine during a pull; the host takes units from any goroutine.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	pace  *stats.PaceWindow
}

func newQueue[T any](paceWindow int) *Queue[T] {
	return &Queue[T]{pace: stats.NewPaceWindow(paceWindow)}
}

func (q *Queue[T]) push(v T, at time.Time) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.pace.Add(at)
	q.mu.Unlock()
}

// Pop removes and returns the oldest unit.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

// Len returns the number of queued units.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops every queued unit and returns how many were dropped.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

func (q *Queue[T]) stats() (int, stats.Pace) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), q.pace.Pace()
}

// outputSink adapts the two queues to the bridge.
type outputSink struct {
	audio *Queue[AudioData]
	video *Queue[VideoData]
	now   func() time.Time
}

func (s outputSink) PushAudio(u AudioData) { s.audio.push(u, s.now()) }

func (s outputSink) PushVideo(u VideoData) { s.video.push(u, s.now()) }
