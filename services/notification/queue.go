package notification

import (
	"context"
	"fmt"

	"slotchain/models"
	"slotchain/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuedNotifier hands booking emails to the background worker, which
// retries delivery independently of the booking request.
type QueuedNotifier struct {
	client Enqueuer
	logger *zap.Logger
}

func NewQueuedNotifier(client Enqueuer, logger *zap.Logger) *QueuedNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuedNotifier{client: client, logger: logger}
}

func (q *QueuedNotifier) SendBookingEmails(ctx context.Context, e models.BookingEmail) error {
	task, opts, err := tasks.NewBookingEmailsTask(e)
	if err != nil {
		return fmt.Errorf("failed to build email task: %w", err)
	}
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}
	q.logger.Debug("Booking emails queued", zap.String("taskId", info.ID), zap.String("queue", info.Queue))
	return nil
}
