package booking

import (
	"context"
	"time"

	availabilityRepo "slotchain/database/repository/availability"
	bookingRepo "slotchain/database/repository/booking"
	userRepo "slotchain/database/repository/user"
	"slotchain/models"
	"slotchain/utils"

	"go.uber.org/zap"
)

// MeetingProvider creates the external video meeting for a booking.
type MeetingProvider interface {
	CreateMeeting(ctx context.Context, req models.MeetingRequest) (*models.Meeting, error)
}

// Notifier delivers the confirmation emails. Failures never fail a booking.
type Notifier interface {
	SendBookingEmails(ctx context.Context, email models.BookingEmail) error
}

// BookingService reserves a creator's slot for a buyer.
type BookingService interface {
	BookSlot(ctx context.Context, req models.BookSlotRequest) (*models.BookingConfirmation, error)
}

// DefaultBookingService runs the booking saga: reserve the slot, create the
// meeting, persist the booking, then notify. Any failure after the
// reservation releases the slot again.
type DefaultBookingService struct {
	Availability availabilityRepo.AvailabilityRepository
	Bookings     bookingRepo.BookingRepository
	Users        userRepo.UserRepository
	Meetings     MeetingProvider
	Notifier     Notifier
	Logger       *zap.Logger
	Metrics      *utils.Metrics

	MeetingTimeout      time.Duration
	CompensationTimeout time.Duration
}

func NewDefaultBookingService(
	availability availabilityRepo.AvailabilityRepository,
	bookings bookingRepo.BookingRepository,
	users userRepo.UserRepository,
	meetings MeetingProvider,
	notifier Notifier,
	logger *zap.Logger,
	metrics *utils.Metrics,
) *DefaultBookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultBookingService{
		Availability:        availability,
		Bookings:            bookings,
		Users:               users,
		Meetings:            meetings,
		Notifier:            notifier,
		Logger:              logger,
		Metrics:             metrics,
		MeetingTimeout:      15 * time.Second,
		CompensationTimeout: 5 * time.Second,
	}
}
