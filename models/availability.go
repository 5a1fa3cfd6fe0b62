package models

import "time"

const DefaultSlotInterval = 30

// DateLayout is the calendar date format used for day keys and ranges.
const DateLayout = "2006-01-02"

// TimeOfDayLayout is the slot boundary format.
const TimeOfDayLayout = "15:04"

// DateRange bounds a schedule. Either end may be empty; Infinite ignores both.
type DateRange struct {
	Start    string `bson:"start,omitempty" json:"start,omitempty"`
	End      string `bson:"end,omitempty" json:"end,omitempty"`
	Infinite bool   `bson:"infinite" json:"infinite"`
}

// WeekAvailability maps lower-case weekday names ("monday") to open intervals.
type WeekAvailability map[string][]Interval

// AvailableDay is the per-date record of an availability document.
type AvailableDay struct {
	Date         string           `bson:"date" json:"date"`
	Availability WeekAvailability `bson:"availability,omitempty" json:"availability,omitempty"`
	Slots        []TimeSlot       `bson:"slots" json:"slots"`
}

// Availability is the schedule a creator publishes, one per wallet address.
type Availability struct {
	WalletAddress     string         `bson:"walletAddress" json:"walletAddress"`
	Timezone          string         `bson:"timezone" json:"timezone"`
	Interval          int            `bson:"interval" json:"interval"`
	Range             DateRange      `bson:"range" json:"range"`
	UnavailableRanges []DateRange    `bson:"unavailableRanges" json:"unavailableRanges"`
	AvailableDays     []AvailableDay `bson:"availableDays" json:"availableDays"`
	CreatedAt         time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// Day returns the record for date, or nil.
func (a *Availability) Day(date string) *AvailableDay {
	for i := range a.AvailableDays {
		if a.AvailableDays[i].Date == date {
			return &a.AvailableDays[i]
		}
	}
	return nil
}

// Slot returns the slot with the given id, or nil.
func (d *AvailableDay) Slot(slotID string) *TimeSlot {
	for i := range d.Slots {
		if d.Slots[i].ID == slotID {
			return &d.Slots[i]
		}
	}
	return nil
}

// UpsertAvailabilityRequest is the create-or-replace payload for a creator's schedule.
type UpsertAvailabilityRequest struct {
	Timezone          string         `json:"timezone" binding:"required"`
	Interval          int            `json:"interval"`
	Range             DateRange      `json:"range"`
	UnavailableRanges []DateRange    `json:"unavailableRanges"`
	AvailableDays     []AvailableDay `json:"availableDays"`
}
