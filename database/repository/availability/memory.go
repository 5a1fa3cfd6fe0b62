package availabilityRepo

import (
	"context"
	"sync"
	"time"

	"slotchain/models"
)

// MemoryAvailabilityRepo is an in-process AvailabilityRepository with the same
// conditional-update semantics as the MongoDB one.
type MemoryAvailabilityRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Availability
}

func NewMemoryAvailabilityRepo() *MemoryAvailabilityRepo {
	return &MemoryAvailabilityRepo{docs: make(map[string]*models.Availability)}
}

func (r *MemoryAvailabilityRepo) GetByWalletAddress(ctx context.Context, walletAddress string) (*models.Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[walletAddress]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAvailability(doc), nil
}

func (r *MemoryAvailabilityRepo) Upsert(ctx context.Context, doc *models.Availability) (*models.Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := cloneAvailability(doc)
	stored.UpdatedAt = now
	if prev, ok := r.docs[doc.WalletAddress]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	r.docs[doc.WalletAddress] = stored
	return cloneAvailability(stored), nil
}

func (r *MemoryAvailabilityRepo) SetSlotBooked(ctx context.Context, walletAddress, date, slotID string, booked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[walletAddress]
	if !ok {
		return ErrSlotNotAvailable
	}
	day := doc.Day(date)
	if day == nil {
		return ErrSlotNotAvailable
	}
	slot := day.Slot(slotID)
	if slot == nil || slot.Booked == booked {
		return ErrSlotNotAvailable
	}
	slot.Booked = booked
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneAvailability(doc *models.Availability) *models.Availability {
	out := *doc
	out.UnavailableRanges = append([]models.DateRange(nil), doc.UnavailableRanges...)
	out.AvailableDays = make([]models.AvailableDay, len(doc.AvailableDays))
	for i, day := range doc.AvailableDays {
		out.AvailableDays[i] = models.AvailableDay{
			Date:  day.Date,
			Slots: append([]models.TimeSlot(nil), day.Slots...),
		}
		if day.Availability != nil {
			week := make(models.WeekAvailability, len(day.Availability))
			for k, v := range day.Availability {
				week[k] = append([]models.Interval(nil), v...)
			}
			out.AvailableDays[i].Availability = week
		}
	}
	return &out
}
