package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	availabilityRepo "slotchain/database/repository/availability"
	"slotchain/models"
	"slotchain/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService manages creator schedules.
type AvailabilityService interface {
	UpsertAvailability(ctx context.Context, walletAddress string, req models.UpsertAvailabilityRequest) (*models.Availability, error)
	// GetAvailability returns nil without error when the wallet has no schedule.
	GetAvailability(ctx context.Context, walletAddress string) (*models.Availability, error)
	GetAvailableSlots(ctx context.Context, walletAddress, date string) ([]models.AvailableSlotResponse, error)
}

type DefaultAvailabilityService struct {
	Repo   availabilityRepo.AvailabilityRepository
	Logger *zap.Logger
}

func NewAvailabilityService(repo availabilityRepo.AvailabilityRepository, logger *zap.Logger) *DefaultAvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultAvailabilityService{Repo: repo, Logger: logger}
}

// UpsertAvailability validates and stores a schedule. Days without explicit
// slots get them generated from their weekday intervals. A slot matching a
// stored one by (date, start, end) keeps its id and booked flag; booked state
// is otherwise never taken from the caller.
func (s *DefaultAvailabilityService) UpsertAvailability(ctx context.Context, walletAddress string, req models.UpsertAvailabilityRequest) (*models.Availability, error) {
	wallet := normalizeWallet(walletAddress)
	if wallet == "" {
		return nil, utils.NewValidationError("walletAddress is required.")
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	existing, err := s.Repo.GetByWalletAddress(ctx, wallet)
	if err != nil && !errors.Is(err, availabilityRepo.ErrNotFound) {
		return nil, utils.NewInternalError("Failed to load availability.", err)
	}

	doc := &models.Availability{
		WalletAddress:     wallet,
		Timezone:          req.Timezone,
		Interval:          req.Interval,
		Range:             req.Range,
		UnavailableRanges: req.UnavailableRanges,
		AvailableDays:     req.AvailableDays,
	}
	if doc.UnavailableRanges == nil {
		doc.UnavailableRanges = []models.DateRange{}
	}
	if doc.AvailableDays == nil {
		doc.AvailableDays = []models.AvailableDay{}
	}

	for i := range doc.AvailableDays {
		day := &doc.AvailableDays[i]
		if len(day.Slots) == 0 {
			windows, err := PlanSlots(doc, day.Date)
			if err != nil {
				return nil, utils.NewValidationError(err.Error())
			}
			day.Slots = make([]models.TimeSlot, 0, len(windows))
			for _, w := range windows {
				day.Slots = append(day.Slots, models.TimeSlot{Start: w.Start, End: w.End})
			}
		}

		var prev *models.AvailableDay
		if existing != nil {
			prev = existing.Day(day.Date)
		}
		for j := range day.Slots {
			reconcileSlot(&day.Slots[j], prev)
		}
	}

	saved, err := s.Repo.Upsert(ctx, doc)
	if err != nil {
		return nil, utils.NewInternalError("Failed to save availability.", err)
	}
	s.Logger.Info("Availability saved",
		zap.String("walletAddress", wallet),
		zap.Int("days", len(saved.AvailableDays)))
	return saved, nil
}

func (s *DefaultAvailabilityService) GetAvailability(ctx context.Context, walletAddress string) (*models.Availability, error) {
	wallet := normalizeWallet(walletAddress)
	if wallet == "" {
		return nil, utils.NewValidationError("walletAddress is required.")
	}
	doc, err := s.Repo.GetByWalletAddress(ctx, wallet)
	if errors.Is(err, availabilityRepo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewInternalError("Failed to load availability.", err)
	}
	return doc, nil
}

// GetAvailableSlots returns the planned windows for date, each annotated with
// the stored slot of the same bounds when there is one.
func (s *DefaultAvailabilityService) GetAvailableSlots(ctx context.Context, walletAddress, date string) ([]models.AvailableSlotResponse, error) {
	if !isDate(date) {
		return nil, utils.NewValidationError("date must be formatted as YYYY-MM-DD.")
	}
	doc, err := s.GetAvailability(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []models.AvailableSlotResponse{}, nil
	}

	windows, err := PlanSlots(doc, date)
	if err != nil {
		s.Logger.Warn("Stored availability could not be planned",
			zap.String("walletAddress", doc.WalletAddress),
			zap.String("date", date),
			zap.Error(err))
		return nil, utils.NewInternalError("Stored availability is malformed.", err)
	}

	day := doc.Day(date)
	out := make([]models.AvailableSlotResponse, 0, len(windows))
	for _, w := range windows {
		resp := models.AvailableSlotResponse{Start: w.Start, End: w.End}
		if day != nil {
			if stored := matchSlot(day, w.Start, w.End); stored != nil {
				resp.ID = stored.ID
				resp.Booked = stored.Booked
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

func reconcileSlot(slot *models.TimeSlot, prev *models.AvailableDay) {
	var stored *models.TimeSlot
	if prev != nil {
		if slot.ID != "" {
			stored = prev.Slot(slot.ID)
		}
		if stored == nil {
			stored = matchSlot(prev, slot.Start, slot.End)
		}
	}
	if stored != nil {
		slot.ID = stored.ID
		slot.Booked = stored.Booked
		return
	}
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.Booked = false
}

func matchSlot(day *models.AvailableDay, start, end string) *models.TimeSlot {
	for i := range day.Slots {
		if day.Slots[i].Start == start && day.Slots[i].End == end {
			return &day.Slots[i]
		}
	}
	return nil
}

func normalizeWallet(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

func validateRequest(req *models.UpsertAvailabilityRequest) error {
	if _, err := LoadLocation(req.Timezone); err != nil || req.Timezone == "" {
		return utils.NewValidationError("timezone must be a valid IANA zone name.")
	}
	if req.Interval < 0 {
		return utils.NewValidationError("interval must be a positive number of minutes.")
	}
	if req.Interval == 0 {
		req.Interval = models.DefaultSlotInterval
	}
	if err := validateRange(req.Range, "range"); err != nil {
		return err
	}
	for i, r := range req.UnavailableRanges {
		if err := validateRange(r, fmt.Sprintf("unavailableRanges[%d]", i)); err != nil {
			return err
		}
	}

	seen := make(map[string]struct{}, len(req.AvailableDays))
	for _, day := range req.AvailableDays {
		if !isDate(day.Date) {
			return utils.NewValidationError(fmt.Sprintf("availableDays date %q must be formatted as YYYY-MM-DD.", day.Date))
		}
		if _, dup := seen[day.Date]; dup {
			return utils.NewValidationError(fmt.Sprintf("availableDays contains %s more than once.", day.Date))
		}
		seen[day.Date] = struct{}{}

		for weekday, intervals := range day.Availability {
			for _, iv := range intervals {
				if err := validateWindow(iv.Start, iv.End); err != nil {
					return utils.NewValidationError(fmt.Sprintf("%s %s interval: %s", day.Date, weekday, err.Error()))
				}
			}
		}
		slotIDs := make(map[string]struct{}, len(day.Slots))
		for _, slot := range day.Slots {
			if err := validateWindow(slot.Start, slot.End); err != nil {
				return utils.NewValidationError(fmt.Sprintf("%s slot: %s", day.Date, err.Error()))
			}
			if slot.ID == "" {
				continue
			}
			if _, dup := slotIDs[slot.ID]; dup {
				return utils.NewValidationError(fmt.Sprintf("%s has duplicate slot id %s.", day.Date, slot.ID))
			}
			slotIDs[slot.ID] = struct{}{}
		}
	}
	return nil
}

func validateRange(r models.DateRange, field string) error {
	if r.Start != "" && !isDate(r.Start) {
		return utils.NewValidationError(field + ".start must be formatted as YYYY-MM-DD.")
	}
	if r.End != "" && !isDate(r.End) {
		return utils.NewValidationError(field + ".end must be formatted as YYYY-MM-DD.")
	}
	if r.Start != "" && r.End != "" && r.End < r.Start {
		return utils.NewValidationError(field + " ends before it starts.")
	}
	return nil
}

func validateWindow(start, end string) error {
	s, err := minutesOfDay(start)
	if err != nil {
		return errors.New("start must be HH:MM")
	}
	e, err := minutesOfDay(end)
	if err != nil {
		return errors.New("end must be HH:MM")
	}
	if s >= e {
		return fmt.Errorf("%s-%s must start before it ends", start, end)
	}
	return nil
}

func isDate(s string) bool {
	if len(s) != len(models.DateLayout) {
		return false
	}
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}
