package clip_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"murmur/internal/clip"
)

func TestQueueIsFIFO(t *testing.T) {
	q := clip.NewQueue(3)
	ctx := context.Background()
	for i := range 3 {
		if err := q.Push(ctx, clip.Clip{ID: strconv.Itoa(i)}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	for i := range 3 {
		c, ok := q.TryPop()
		if !ok || c.ID != strconv.Itoa(i) {
			t.Fatalf("expected clip %d, got %+v ok=%v", i, c, ok)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestQueueBoundHoldsUnderConcurrentProducers(t *testing.T) {
	const capacity = 4
	q := clip.NewQueue(capacity)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var produced atomic.Int32
	var wg sync.WaitGroup
	for p := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 10 {
				if err := q.Push(ctx, clip.Clip{ID: strconv.Itoa(p*100 + i)}); err != nil {
					return
				}
				produced.Add(1)
			}
		}()
	}

	consumed := 0
	for consumed < 80 {
		if n := q.Len(); n > capacity {
			t.Fatalf("queue length %d exceeded capacity %d", n, capacity)
		}
		if _, ok := q.TryPop(); ok {
			consumed++
			continue
		}
		select {
		case <-ctx.Done():
			t.Fatalf("timed out after consuming %d clips", consumed)
		case <-time.After(time.Millisecond):
		}
	}
	wg.Wait()
	if produced.Load() != 80 {
		t.Fatalf("expected 80 pushes, got %d", produced.Load())
	}
}

func TestPushHonoursCancellationWhenFull(t *testing.T) {
	q := clip.NewQueue(1)
	if err := q.Push(context.Background(), clip.Clip{ID: "a"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Push(ctx, clip.Clip{ID: "b"}); err == nil {
		t.Fatal("expected push to fail on cancelled context")
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 queued clip, got %d", q.Len())
	}
}

func TestWaitForSpace(t *testing.T) {
	q := clip.NewQueue(1)
	if err := q.WaitForSpace(context.Background()); err != nil {
		t.Fatalf("expected immediate return on empty queue: %v", err)
	}
	_ = q.Push(context.Background(), clip.Clip{ID: "a"})

	done := make(chan error, 1)
	go func() { done <- q.WaitForSpace(context.Background()) }()

	select {
	case <-done:
		t.Fatal("WaitForSpace returned while queue was full")
	case <-time.After(150 * time.Millisecond):
	}
	q.TryPop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitForSpace: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForSpace did not observe free space")
	}
}

func TestDrainReturnsRemaining(t *testing.T) {
	q := clip.NewQueue(3)
	_ = q.Push(context.Background(), clip.Clip{ID: "a"})
	_ = q.Push(context.Background(), clip.Clip{ID: "b"})
	got := q.Drain()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected drain result %+v", got)
	}
	if q.Len() != 0 {
		t.Fatal("expected empty queue after drain")
	}
}

func TestHasSlot(t *testing.T) {
	c := clip.Clip{Slot: clip.NoSlot}
	if c.HasSlot(4) {
		t.Fatal("NoSlot should not be valid")
	}
	c.Slot = 3
	if !c.HasSlot(4) || c.HasSlot(3) {
		t.Fatal("unexpected slot validity")
	}
}
