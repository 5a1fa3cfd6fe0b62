package cron

import (
	"context"
	"fmt"
	"time"

	"slotchain/models"
	"slotchain/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EmailSender delivers booking emails synchronously.
type EmailSender interface {
	SendBookingEmails(ctx context.Context, e models.BookingEmail) error
}

// EmailWorker drains the notifications queue.
type EmailWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewEmailWorker(redisOpts asynq.RedisClientOpt, sender EmailSender, logger *zap.Logger) *EmailWorker {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"notifications": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendBookingEmails, HandleBookingEmailsTask(sender, logger))

	return &EmailWorker{srv: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *EmailWorker) Start() {
	go func() {
		w.logger.Info("Starting email worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Error("Email worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Error("Email worker gave up; queued emails will wait for the next start")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

func (w *EmailWorker) Shutdown() {
	w.srv.Shutdown()
}

func HandleBookingEmailsTask(sender EmailSender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseBookingEmailsTask(task)
		if err != nil {
			logger.Error("Invalid booking email payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		if err := sender.SendBookingEmails(ctx, p); err != nil {
			logger.Warn("Booking email delivery failed, will retry",
				zap.String("buyerEmail", p.BuyerEmail),
				zap.Error(err))
			return err
		}
		return nil
	}
}
