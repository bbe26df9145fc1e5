package queue

import (
	"context"
)

// HandlerFunc processes a single task. A returned error makes the queue
// consult the RetryManager.
type HandlerFunc func(ctx context.Context, task *Task) error

// Queue интерфейс очереди
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler HandlerFunc) error
	Close() error
}
