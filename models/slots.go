package models

// TimeSlot is a bookable window on a specific date. Start and End are
// local times of day ("HH:MM") in the owning document's timezone.
type TimeSlot struct {
	ID     string `bson:"id" json:"id"`
	Start  string `bson:"start" json:"start"`
	End    string `bson:"end" json:"end"`
	Booked bool   `bson:"booked" json:"booked"`
}

// Interval is an open stretch of time inside a weekday template, e.g. 09:00-12:00.
type Interval struct {
	Start string `bson:"start" json:"start" binding:"required"`
	End   string `bson:"end" json:"end" binding:"required"`
}

// SlotWindow is a computed, not yet persisted slot.
type SlotWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailableSlotResponse is a planner window annotated with the stored slot, if any.
type AvailableSlotResponse struct {
	ID     string `json:"id,omitempty"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Booked bool   `json:"booked"`
}
