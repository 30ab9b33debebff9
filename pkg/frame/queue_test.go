package frame

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueue_FlushRunsInRequestOrder(t *testing.T) {
	q := NewQueue()
	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		q.RequestFrame(func() { got = append(got, i) })
	}
	q.RequestFrame(nil)

	if q.Pending() != 3 {
		t.Fatalf("Pending() = %d, want 3", q.Pending())
	}
	if n := q.Flush(); n != 3 {
		t.Errorf("Flush() = %d, want 3", n)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("order = %v", got)
	}
	if q.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", q.Frames())
	}
}

func TestQueue_RequestsDuringFlushWaitForNextFrame(t *testing.T) {
	q := NewQueue()
	var got []string
	q.RequestFrame(func() {
		got = append(got, "first")
		q.RequestFrame(func() { got = append(got, "nested") })
	})

	q.Flush()
	if len(got) != 1 {
		t.Fatalf("nested callback ran in the same frame: %v", got)
	}
	q.Flush()
	if len(got) != 2 || got[1] != "nested" {
		t.Errorf("got %v", got)
	}
}

func TestQueue_Drain(t *testing.T) {
	q := NewQueue()
	depth := 0
	var schedule func()
	schedule = func() {
		depth++
		if depth < 5 {
			q.RequestFrame(schedule)
		}
	}
	q.RequestFrame(schedule)

	if n := q.Drain(2); n != 2 {
		t.Errorf("Drain(2) = %d, want 2", n)
	}
	q.Drain(0)
	if depth != 5 {
		t.Errorf("depth = %d, want 5", depth)
	}
	if q.Pending() != 0 {
		t.Errorf("Pending() = %d after drain", q.Pending())
	}
}

func TestQueue_Run(t *testing.T) {
	q := NewQueue()
	done := make(chan struct{})
	q.RequestFrame(func() { close(done) })

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- q.Run(ctx, time.Millisecond) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frame was not flushed")
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestImmediate(t *testing.T) {
	ran := false
	Immediate{}.RequestFrame(func() { ran = true })
	Immediate{}.RequestFrame(nil)
	if !ran {
		t.Error("Immediate should run synchronously")
	}
}
