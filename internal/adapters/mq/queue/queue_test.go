package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/liftboard/internal/domain/model"
)

func attribution(id string, events ...string) model.Attribution {
	return model.Attribution{
		Submission: model.WorkoutSubmission{ID: id, ProfileID: "p1"},
		EventIDs:   events,
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, attribution("w1", "e1", "e2")); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	a := <-q.Dequeue(ctx)
	if a.Submission.ID != "w1" || len(a.EventIDs) != 2 {
		t.Errorf("unexpected attribution %+v", a)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := q.Enqueue(ctx, attribution(fmt.Sprintf("w%d", i), "e1")); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := q.Enqueue(ctx, attribution("w3", "e1")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if q.Cap() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Cap())
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Enqueue(ctx, attribution("w1", "e1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Enqueue(ctx, attribution("w1", "e1"))
	_ = q.Enqueue(ctx, attribution("w2", "e1"))
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Enqueue(ctx, attribution("w3", "e1")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	var got []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case a, ok := <-ch:
			if !ok {
				if len(got) != 2 || got[0] != "w1" || got[1] != "w2" {
					t.Errorf("expected queued items to drain in order, got %v", got)
				}
				return
			}
			got = append(got, a.Submission.ID)
		case <-timeout:
			t.Fatal("dequeue channel was not closed")
		}
	}
}

func TestInMemoryQueue_DequeueStopsOnContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Dequeue(ctx)
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected no items")
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue channel was not closed after cancel")
	}
}
