package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	availabilityRepo "slotchain/database/repository/availability"
	bookingRepo "slotchain/database/repository/booking"
	userRepo "slotchain/database/repository/user"
	"slotchain/models"
	"slotchain/services/availability"
	"slotchain/utils"

	"go.uber.org/zap"
)

const meetingStartLayout = "2006-01-02T15:04:05"

// BookSlot reserves req.SlotID. Every read-only check runs before the slot is
// touched, so a rejected request changes nothing.
func (s *DefaultBookingService) BookSlot(ctx context.Context, req models.BookSlotRequest) (conf *models.BookingConfirmation, err error) {
	defer func() {
		if s.Metrics != nil {
			s.Metrics.Bookings.WithLabelValues(utils.Outcome(err)).Inc()
		}
	}()

	if err := validateBookRequest(&req); err != nil {
		return nil, err
	}
	creator := strings.ToLower(req.CreatorAddress)
	logger := s.Logger.With(
		zap.String("creator", creator),
		zap.String("date", req.Date),
		zap.String("slotId", req.SlotID),
		zap.String("tokenId", req.TokenID),
	)

	doc, err := s.Availability.GetByWalletAddress(ctx, creator)
	if errors.Is(err, availabilityRepo.ErrNotFound) {
		return nil, utils.NewNotFoundError("Availability not found for creator.")
	}
	if err != nil {
		return nil, utils.NewInternalError("Failed to load availability.", err)
	}
	day := doc.Day(req.Date)
	if day == nil {
		return nil, utils.NewNotFoundError("Selected day is not available.")
	}
	slot := day.Slot(req.SlotID)
	if slot == nil {
		return nil, utils.NewNotFoundError("Selected slot was not found.")
	}
	if slot.Booked {
		return nil, utils.NewConflictError("Slot is already booked.")
	}

	start, end, duration, err := slotWindow(doc, req.Date, *slot)
	if err != nil {
		return nil, err
	}

	profile, err := s.Users.GetByWalletAddress(ctx, creator)
	if err != nil && !errors.Is(err, userRepo.ErrNotFound) {
		return nil, utils.NewInternalError("Failed to load creator profile.", err)
	}
	if profile == nil || strings.TrimSpace(profile.Email) == "" {
		return nil, utils.NewValidationError("Creator email is not configured. Ask the creator to update their profile.")
	}
	creatorName := firstNonEmpty(req.CreatorName, profile.FullName, creator)

	existing, err := s.Bookings.GetByTokenID(ctx, req.TokenID)
	if err != nil && !errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, utils.NewInternalError("Failed to check existing bookings.", err)
	}
	if existing != nil {
		return nil, utils.NewConflictError(fmt.Sprintf("Booking already recorded for tokenId %s.", req.TokenID))
	}

	if err := s.Availability.SetSlotBooked(ctx, creator, req.Date, req.SlotID, true); err != nil {
		if errors.Is(err, availabilityRepo.ErrSlotNotAvailable) {
			return nil, utils.NewConflictError("Slot is already booked.")
		}
		return nil, utils.NewInternalError("Failed to reserve slot.", err)
	}
	logger.Info("Slot reserved")

	meeting, err := s.createMeeting(ctx, models.MeetingRequest{
		Topic:           "SlotChain Session with " + creatorName,
		StartTimeLocal:  start.Format(meetingStartLayout),
		DurationMinutes: duration,
		Timezone:        doc.Timezone,
		Agenda:          fmt.Sprintf("Consultation between %s and %s", creatorName, firstNonEmpty(req.BuyerName, "client")),
	})
	if err != nil {
		logger.Error("Meeting creation failed", zap.Error(err))
		s.releaseSlot(ctx, logger, creator, req.Date, req.SlotID)
		return nil, utils.NewUpstreamError("Unable to create meeting for this booking.", err)
	}

	record := &models.Booking{
		TokenID:              req.TokenID,
		CreatorWalletAddress: creator,
		CreatorEmail:         profile.Email,
		CreatorName:          creatorName,
		BuyerEmail:           req.BuyerEmail,
		BuyerName:            req.BuyerName,
		SlotID:               req.SlotID,
		Date:                 req.Date,
		MeetingID:            meeting.ID,
		MeetingJoinURL:       meeting.JoinURL,
		MeetingHostURL:       meeting.HostURL,
		MeetingStartTime:     start.UTC(),
		MeetingEndTime:       end.UTC(),
		Status:               models.BookingStatusConfirmed,
	}
	if err := s.Bookings.Create(ctx, record); err != nil {
		// The meeting stays behind: there is no provider-side delete to undo it.
		logger.Error("Booking persistence failed", zap.String("meetingId", meeting.ID), zap.Error(err))
		s.releaseSlot(ctx, logger, creator, req.Date, req.SlotID)
		if errors.Is(err, bookingRepo.ErrDuplicateTokenID) {
			return nil, utils.NewConflictError(fmt.Sprintf("Booking already recorded for tokenId %s.", req.TokenID))
		}
		return nil, utils.NewInternalError("Failed to record booking.", err)
	}

	if s.Notifier != nil {
		err := s.Notifier.SendBookingEmails(ctx, models.BookingEmail{
			BuyerEmail:   req.BuyerEmail,
			BuyerName:    req.BuyerName,
			CreatorEmail: profile.Email,
			CreatorName:  creatorName,
			JoinURL:      meeting.JoinURL,
			HostURL:      meeting.HostURL,
			StartTime:    start,
			EndTime:      end,
			Timezone:     doc.Timezone,
		})
		if err != nil {
			logger.Warn("Booking emails were not sent", zap.Error(err))
		}
	}

	logger.Info("Booking confirmed", zap.String("meetingId", meeting.ID))
	booked := *slot
	booked.Booked = true
	return &models.BookingConfirmation{
		Slot: booked,
		Meeting: models.BookedMeeting{
			ID:        meeting.ID,
			JoinURL:   meeting.JoinURL,
			HostURL:   meeting.HostURL,
			StartTime: start,
			EndTime:   end,
			Timezone:  doc.Timezone,
		},
	}, nil
}

func (s *DefaultBookingService) createMeeting(ctx context.Context, req models.MeetingRequest) (*models.Meeting, error) {
	if s.MeetingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.MeetingTimeout)
		defer cancel()
	}
	meeting, err := s.Meetings.CreateMeeting(ctx, req)
	if err != nil {
		return nil, err
	}
	if meeting == nil || meeting.JoinURL == "" {
		return nil, errors.New("meeting provider returned no join url")
	}
	return meeting, nil
}

// releaseSlot undoes the reservation. It runs detached from ctx so that a
// caller cancelling mid-saga still gets the slot back. A failure here leaves
// the slot booked with no booking record and is logged for manual repair.
func (s *DefaultBookingService) releaseSlot(ctx context.Context, logger *zap.Logger, creator, date, slotID string) {
	timeout := s.CompensationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	err := s.Availability.SetSlotBooked(cctx, creator, date, slotID, false)
	if s.Metrics != nil {
		result := "released"
		if err != nil {
			result = "failed"
		}
		s.Metrics.Compensations.WithLabelValues(result).Inc()
	}
	if err != nil {
		logger.Error("Failed to release slot after booking failure",
			zap.Bool("inconsistency", true),
			zap.Error(err))
		return
	}
	logger.Info("Slot released after booking failure")
}

// slotWindow resolves the slot's absolute bounds in the schedule's timezone.
// A non-positive raw duration falls back to the schedule interval, then to
// the default interval.
func slotWindow(doc *models.Availability, date string, slot models.TimeSlot) (time.Time, time.Time, int, error) {
	invalid := utils.NewValidationError("Slot timings are invalid.")

	loc, err := availability.LoadLocation(doc.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, 0, invalid
	}
	start, err := time.ParseInLocation(models.DateLayout+" "+models.TimeOfDayLayout, date+" "+slot.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, 0, invalid
	}
	end, err := time.ParseInLocation(models.DateLayout+" "+models.TimeOfDayLayout, date+" "+slot.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, 0, invalid
	}

	duration := int(end.Sub(start) / time.Minute)
	if duration <= 0 {
		duration = doc.Interval
		if duration <= 0 {
			duration = models.DefaultSlotInterval
		}
		end = start.Add(time.Duration(duration) * time.Minute)
	}
	return start, end, duration, nil
}

func validateBookRequest(req *models.BookSlotRequest) error {
	req.CreatorAddress = strings.TrimSpace(req.CreatorAddress)
	req.BuyerEmail = strings.TrimSpace(req.BuyerEmail)
	req.TokenID = strings.TrimSpace(req.TokenID)

	if req.CreatorAddress == "" || req.Date == "" || req.SlotID == "" {
		return utils.NewValidationError("creatorAddress, date and slotId are required.")
	}
	if req.BuyerEmail == "" {
		return utils.NewValidationError("buyerEmail is required to send meeting details.")
	}
	if _, err := mail.ParseAddress(req.BuyerEmail); err != nil {
		return utils.NewValidationError("buyerEmail is not a valid email address.")
	}
	if req.TokenID == "" {
		return utils.NewValidationError("tokenId is required to record the booking.")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
