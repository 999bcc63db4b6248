package shutdown

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestShutdownRunsCleanupsInReverse(t *testing.T) {
	h := New()
	var order []int
	h.AddCleanup(func() { order = append(order, 1) })
	h.AddCleanup(func() { order = append(order, 2) })

	h.Shutdown()
	h.Shutdown()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("cleanup order = %v, want [2 1]", order)
	}
	if h.Context().Err() == nil {
		t.Error("context not cancelled")
	}
}

func TestGoAndWait(t *testing.T) {
	h := New()
	var finished atomic.Bool

	h.Go(func(ctx context.Context) {
		<-ctx.Done()
		finished.Store(true)
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		h.Shutdown()
	}()
	h.Wait()

	if !finished.Load() {
		t.Error("worker did not observe cancellation")
	}
}

func TestListenStopsWithContext(t *testing.T) {
	h := New()
	h.Listen()
	h.Shutdown()
	if h.Context().Err() != context.Canceled {
		t.Errorf("Err() = %v", h.Context().Err())
	}
}
