// internal/adapters/queue/notifier.go
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/internal/workers"
)

// Enqueuer is the part of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskNotifier turns every change into an inventory:changed task.
type TaskNotifier struct {
	client   Enqueuer
	queue    string
	maxRetry int
	logger   *slog.Logger
}

var _ ports.ChangeNotifier = (*TaskNotifier)(nil)

// NewTaskNotifier creates a notifier enqueuing on queue
func NewTaskNotifier(client Enqueuer, queue string, maxRetry int, logger *slog.Logger) *TaskNotifier {
	if queue == "" {
		queue = "default"
	}
	return &TaskNotifier{
		client:   client,
		queue:    queue,
		maxRetry: maxRetry,
		logger:   logger.With(slog.String("component", "task_notifier")),
	}
}

func (n *TaskNotifier) Notify(ctx context.Context, change domain.Change) error {
	task, err := workers.NewChangeTask(change)
	if err != nil {
		return err
	}

	info, err := n.client.EnqueueContext(ctx, task,
		asynq.Queue(n.queue),
		asynq.MaxRetry(n.maxRetry),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue change: %w", err)
	}

	n.logger.DebugContext(ctx, "change enqueued",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
		slog.String("collection", string(change.Collection)))

	return nil
}
