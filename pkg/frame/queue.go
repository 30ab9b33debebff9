// Package frame schedules work for the next paint opportunity.
//
// Queue stands in for requestAnimationFrame: callbacks requested before a
// flush run together, in request order, when the frame is flushed.
// Callbacks requested while a frame is flushing wait for the next one.
//
// The host decides what a frame is. Tests and batch tools call Flush
// directly; long-running hosts call Run, which flushes on a ticker. The
// goroutine that flushes is the UI goroutine: views and DOM values must
// only be touched from it.
package frame

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval approximates a 60Hz display.
const DefaultInterval = 16 * time.Millisecond

// Scheduler defers a callback to the next frame.
type Scheduler interface {
	RequestFrame(fn func())
}

// Queue is a FIFO frame scheduler. The zero value is ready to use.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	frames  uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// RequestFrame schedules fn for the next frame. Requests are never
// coalesced or cancelled.
func (q *Queue) RequestFrame(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Pending returns the number of callbacks waiting for the next frame.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Frames returns the number of frames flushed so far.
func (q *Queue) Frames() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.frames
}

// Flush runs one frame: every callback requested before the call, in
// request order. It returns the number of callbacks run.
func (q *Queue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.frames++
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Drain flushes frames until none are pending, up to max frames. A max
// of zero or less means no limit.
func (q *Queue) Drain(max int) int {
	total := 0
	for i := 0; max <= 0 || i < max; i++ {
		if q.Pending() == 0 {
			break
		}
		total += q.Flush()
	}
	return total
}

// Run flushes a frame every interval until ctx is done. It runs on the
// calling goroutine.
func (q *Queue) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			q.Flush()
		}
	}
}

// Immediate runs callbacks synchronously. It is the scheduler used when
// no frame source is available.
type Immediate struct{}

// RequestFrame runs fn now.
func (Immediate) RequestFrame(fn func()) {
	if fn != nil {
		fn()
	}
}
