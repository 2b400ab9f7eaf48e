package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBatchRunsConcurrentlyAndJoins(t *testing.T) {
	pool := NewPool(3, 8, nil)
	defer pool.Close()

	var (
		running int32
		peak    int32
		results sync.Map
	)
	release := make(chan struct{})
	batch := pool.NewBatch(context.Background())
	for _, name := range []string{"feed", "chats", "notifications"} {
		if err := batch.Go(name, func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			results.Store(name, true)
			return nil
		}); err != nil {
			t.Fatalf("Go(%s) error: %v", name, err)
		}
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&running) < 3 {
		select {
		case <-deadline:
			t.Fatalf("tasks did not run concurrently, running=%d", atomic.LoadInt32(&running))
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)

	if err := batch.Wait(); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	for _, name := range []string{"feed", "chats", "notifications"} {
		if _, ok := results.Load(name); !ok {
			t.Fatalf("task %s did not complete", name)
		}
	}
	if got := atomic.LoadInt32(&peak); got != 3 {
		t.Fatalf("expected peak concurrency 3, got %d", got)
	}
}

func TestBatchJoinsErrors(t *testing.T) {
	pool := NewPool(2, 4, nil)
	defer pool.Close()

	errStats := errors.New("stats failed")
	batch := pool.NewBatch(context.Background())
	batch.Go("stats", func(context.Context) error { return errStats })
	batch.Go("users", func(context.Context) error { return nil })

	err := batch.Wait()
	if !errors.Is(err, errStats) {
		t.Fatalf("expected joined stats error, got %v", err)
	}
}

func TestSubmitFailsFastWhenQueueFull(t *testing.T) {
	pool := NewPool(1, 1, nil)
	block := make(chan struct{})
	started := make(chan struct{})

	if err := pool.Submit(context.Background(), func(context.Context) {
		close(started)
		<-block
	}); err != nil {
		t.Fatalf("first Submit error: %v", err)
	}
	<-started
	if err := pool.Submit(context.Background(), func(context.Context) {}); err != nil {
		t.Fatalf("queued Submit error: %v", err)
	}
	if err := pool.Submit(context.Background(), func(context.Context) {}); !errors.Is(err, ErrPoolBusy) {
		t.Fatalf("expected ErrPoolBusy, got %v", err)
	}

	batch := pool.NewBatch(context.Background())
	if err := batch.Go("overflow", func(context.Context) error { return nil }); !errors.Is(err, ErrPoolBusy) {
		t.Fatalf("expected ErrPoolBusy from batch, got %v", err)
	}
	if err := batch.Wait(); !errors.Is(err, ErrPoolBusy) {
		t.Fatalf("Wait should report the rejected task, got %v", err)
	}

	close(block)
	pool.Close()
	if err := pool.Submit(context.Background(), func(context.Context) {}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestBatchSkipsCancelledTasks(t *testing.T) {
	pool := NewPool(1, 4, nil)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	batch := pool.NewBatch(ctx)
	batch.Go("late", func(context.Context) error {
		ran = true
		return nil
	})
	if err := batch.Wait(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Fatalf("task ran with a cancelled context")
	}
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	pool := NewPool(1, 2, nil)
	defer pool.Close()

	batch := pool.NewBatch(context.Background())
	batch.Go("boom", func(context.Context) error { panic("boom") })
	if err := batch.Wait(); err == nil || !strings.Contains(err.Error(), "boom: panic: boom") {
		t.Fatalf("expected panic to surface from Wait, got %v", err)
	}

	done := make(chan struct{})
	if err := pool.Submit(context.Background(), func(context.Context) { close(done) }); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker died after panic")
	}
}
