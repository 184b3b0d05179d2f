package jobqueue

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
)

// HandlerQueue supports setting a handler for job delivery.
type HandlerQueue interface {
	domain.JobQueue
	SetHandler(handler Handler)
}

// Handler executes jobs synchronously or in the background.
type Handler func(ctx context.Context, name string, payload map[string]any)

// ImmediateQueue calls the handler in a goroutine on enqueue. It is the
// in-process stand-in for a durable queue; jobs are lost on restart along
// with the notes they would have served.
type ImmediateQueue struct {
	mu      sync.RWMutex
	handler Handler
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue(handler Handler) *ImmediateQueue {
	return &ImmediateQueue{handler: handler}
}

// SetHandler replaces the handler used for queued jobs.
func (q *ImmediateQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	q.handler = handler
	q.mu.Unlock()
}

// Enqueue invokes the handler asynchronously. The job outlives the request
// that enqueued it, so cancellation is detached while values are kept.
func (q *ImmediateQueue) Enqueue(ctx context.Context, name string, payload any) error {
	q.mu.RLock()
	handler := q.handler
	q.mu.RUnlock()
	if handler == nil {
		return fmt.Errorf("no handler registered for job %q", name)
	}
	typed, ok := payload.(map[string]any)
	if !ok {
		typed = map[string]any{}
	}
	go handler(context.WithoutCancel(ctx), name, typed)
	return nil
}

var _ domain.JobQueue = (*ImmediateQueue)(nil)
var _ HandlerQueue = (*ImmediateQueue)(nil)
