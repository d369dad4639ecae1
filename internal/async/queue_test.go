package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScanQueueProcessesAllJobs(t *testing.T) {
	var processed atomic.Int64
	q := NewScanQueue(func(ctx context.Context, path string) error {
		processed.Add(1)
		return nil
	}, discardLogger(), WithWorkers(2), WithQueueSize(8))

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(context.Background(), Job{Path: "scan.png"}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := processed.Load(); got != 5 {
		t.Errorf("processed %d jobs, want 5", got)
	}
}

func TestScanQueueSurvivesFailingJobs(t *testing.T) {
	var calls atomic.Int64
	q := NewScanQueue(func(ctx context.Context, path string) error {
		calls.Add(1)
		return errors.New("ocr offline")
	}, discardLogger(), WithWorkers(1))

	_ = q.Enqueue(context.Background(), Job{Path: "a.tsv"})
	_ = q.Enqueue(context.Background(), Job{Path: "b.tsv"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := calls.Load(); got != 2 {
		t.Errorf("ran %d jobs, want both despite errors", got)
	}
}

func TestScanQueueShutdownWithBlockedEnqueue(t *testing.T) {
	gate := make(chan struct{})
	q := NewScanQueue(func(ctx context.Context, path string) error {
		<-gate
		return nil
	}, discardLogger(), WithWorkers(1), WithQueueSize(1))

	// First job occupies the sole worker, second fills the buffer, so the
	// third producer sits in backpressure.
	_ = q.Enqueue(context.Background(), Job{Path: "a.tsv"})
	_ = q.Enqueue(context.Background(), Job{Path: "b.tsv"})

	blocked := make(chan struct{})
	go func() {
		defer close(blocked)
		_ = q.Enqueue(context.Background(), Job{Path: "c.tsv"})
	}()
	time.Sleep(50 * time.Millisecond)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		q.Shutdown(ctx)
	}()

	close(gate)

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown stalled behind a producer applying backpressure")
	}
	<-blocked
}

func TestScanQueueEnqueueAfterShutdown(t *testing.T) {
	q := NewScanQueue(func(ctx context.Context, path string) error { return nil }, discardLogger(), WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
	q.Shutdown(ctx) // idempotent

	if err := q.Enqueue(context.Background(), Job{Path: "late.png"}); err != nil {
		t.Errorf("Enqueue() after shutdown error = %v, want nil no-op", err)
	}
}
