package availability

import (
	"fmt"
	"strings"
	"time"
	// Creators pick arbitrary IANA zones; ship the database with the binary.
	_ "time/tzdata"

	"slotchain/models"
)

// PlanSlots computes the bookable windows of doc on date. It does not touch
// storage. It returns an empty result, not an error, when the date is outside
// the schedule's range, inside an unavailable range, has no day record or
// has no intervals for its weekday. Errors mean the document or date is malformed.
func PlanSlots(doc *models.Availability, date string) ([]models.SlotWindow, error) {
	loc, err := LoadLocation(doc.Timezone)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	if !doc.Range.Infinite && !withinBounds(doc.Range, date) {
		return []models.SlotWindow{}, nil
	}
	for _, r := range doc.UnavailableRanges {
		if blocks(r, date) {
			return []models.SlotWindow{}, nil
		}
	}

	record := doc.Day(date)
	if record == nil {
		return []models.SlotWindow{}, nil
	}
	intervals := record.Availability[strings.ToLower(day.Weekday().String())]
	if len(intervals) == 0 {
		return []models.SlotWindow{}, nil
	}

	step := doc.Interval
	if step <= 0 {
		step = models.DefaultSlotInterval
	}

	windows := []models.SlotWindow{}
	for _, iv := range intervals {
		start, err := minutesOfDay(iv.Start)
		if err != nil {
			return nil, err
		}
		end, err := minutesOfDay(iv.End)
		if err != nil {
			return nil, err
		}
		// a trailing partial step is dropped
		for cur := start; cur+step <= end; cur += step {
			windows = append(windows, models.SlotWindow{
				Start: formatMinutes(cur),
				End:   formatMinutes(cur + step),
			})
		}
	}
	return windows, nil
}

// LoadLocation resolves an IANA zone name. Empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// withinBounds treats a missing bound as open. Dates compare lexically in
// YYYY-MM-DD form.
func withinBounds(r models.DateRange, date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// blocks reports whether an unavailable range covers date. An infinite range
// blocks everything from its start onwards. A range with no bounds at all is
// ignored.
func blocks(r models.DateRange, date string) bool {
	if r.Infinite {
		return r.Start == "" || date >= r.Start
	}
	if r.Start == "" && r.End == "" {
		return false
	}
	return withinBounds(r, date)
}

func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse(models.TimeOfDayLayout, hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
