// Package workqueue provides the bounded hand-off channel between the
// ingestion and transcoding stages.
package workqueue

import (
	"context"
	"errors"
)

// Item identifies one asset ready for transcoding: the stable identifier
// plus the local path of the fetched original. Items are never mutated
// after creation.
type Item struct {
	AssetID    string
	SourcePath string
}

// ErrClosed is returned when enqueueing after the end-of-work marker has
// been sent.
var ErrClosed = errors.New("workqueue: closed")

type envelope struct {
	item Item
	end  bool
}

// Queue is a bounded FIFO carrying work items from producer to consumer.
// Enqueue blocks while the queue is full; Dequeue blocks while it is empty.
// A single end-of-work marker, sent with Finish, tells the consumer that no
// further items will arrive. The marker is a distinct envelope flag, never
// an in-band item value.
type Queue struct {
	ch     chan envelope
	closed chan struct{}
}

// New constructs a queue with the given capacity. Capacity 1 fully
// serializes the hand-off and is the minimal correct configuration; larger
// capacities let the fetch stage run ahead of the transcoder.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		ch:     make(chan envelope, capacity),
		closed: make(chan struct{}),
	}
}

// Enqueue adds an item, blocking while the queue is full. It fails if the
// context is cancelled or the queue has already been finished.
func (q *Queue) Enqueue(ctx context.Context, item Item) error {
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- envelope{item: item}:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finish enqueues the end-of-work marker. Exactly one marker is sent per
// pipeline run; callers must not enqueue after Finish.
func (q *Queue) Finish(ctx context.Context) error {
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- envelope{end: true}:
		close(q.closed)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the oldest entry, blocking while the queue is empty. The
// second return value is false once the end-of-work marker is observed;
// after that the consumer must stop pulling.
func (q *Queue) Dequeue(ctx context.Context) (Item, bool, error) {
	select {
	case env := <-q.ch:
		if env.end {
			return Item{}, false, nil
		}
		return env.item, true, nil
	case <-ctx.Done():
		return Item{}, false, ctx.Err()
	}
}
