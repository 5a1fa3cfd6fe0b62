package tasks

import (
	"encoding/json"
	"time"

	"slotchain/models"

	"github.com/hibiken/asynq"
)

const TypeSendBookingEmails = "booking:emails"

func NewBookingEmailsTask(payload models.BookingEmail) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendBookingEmails, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		asynq.Queue("notifications"),
	}
	return task, opts, nil
}

func ParseBookingEmailsTask(t *asynq.Task) (models.BookingEmail, error) {
	var payload models.BookingEmail
	err := json.Unmarshal(t.Payload(), &payload)
	return payload, err
}
