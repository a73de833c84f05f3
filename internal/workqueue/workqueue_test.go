package workqueue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func drain(t *testing.T, q *Queue) []Item {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var items []Item
	for {
		item, ok, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue failed: %v", err)
		}
		if !ok {
			return items
		}
		items = append(items, item)
	}
}

func TestFIFOOrderCapacityOne(t *testing.T) {
	q := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		for _, id := range []string{"a", "b", "c"} {
			if err := q.Enqueue(ctx, Item{AssetID: id}); err != nil {
				t.Errorf("enqueue %s: %v", id, err)
				return
			}
		}
		if err := q.Finish(ctx); err != nil {
			t.Errorf("finish: %v", err)
		}
	}()

	items := drain(t, q)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"a", "b", "c"} {
		if items[i].AssetID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, items[i].AssetID)
		}
	}
}

func TestFIFOOrderLargerCapacity(t *testing.T) {
	q := New(8)
	ctx := context.Background()

	// With spare capacity the producer never blocks, so this runs inline.
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Enqueue(ctx, Item{AssetID: id}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	if err := q.Finish(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}

	items := drain(t, q)
	if len(items) != 3 || items[0].AssetID != "a" || items[2].AssetID != "c" {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestEnqueueAfterFinishFails(t *testing.T) {
	q := New(2)
	ctx := context.Background()

	if err := q.Finish(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := q.Enqueue(ctx, Item{AssetID: "late"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := q.Finish(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for double finish, got %v", err)
	}
}

func TestEnqueueBlocksWhenFull(t *testing.T) {
	q := New(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Item{AssetID: "first"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	blockedCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(blockedCtx, Item{AssetID: "second"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while queue full, got %v", err)
	}
}

func TestDequeueRespectsCancellation(t *testing.T) {
	q := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded on empty queue, got %v", err)
	}
}

func TestSentinelObservedAfterItems(t *testing.T) {
	q := New(4)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Item{AssetID: "only"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Finish(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}

	item, ok, err := q.Dequeue(ctx)
	if err != nil || !ok || item.AssetID != "only" {
		t.Fatalf("expected payload first, got %v %v %v", item, ok, err)
	}
	if _, ok, err := q.Dequeue(ctx); err != nil || ok {
		t.Fatalf("expected end-of-work, got ok=%v err=%v", ok, err)
	}
}
