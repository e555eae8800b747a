package queue

import "context"

// WorkQueue is the transport between discovery and the worker pool.
// Delivery is at-least-once; idempotent persistence makes redelivery safe.
type WorkQueue interface {
	// Enqueue pushes one serialized work item onto the work queue.
	Enqueue(ctx context.Context, payload []byte) error

	// Dequeue pops one item, waiting up to the transport's bounded window.
	// Returns (nil, nil) when the window elapses with nothing to hand out.
	Dequeue(ctx context.Context) ([]byte, error)

	// EnqueueFailed parks a failed item verbatim on the failed-work list.
	// Nothing in this core ever redelivers from that list.
	EnqueueFailed(ctx context.Context, payload []byte) error
}
