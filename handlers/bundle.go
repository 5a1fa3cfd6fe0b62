// File: slotchain/handlers/bundle.go
package handlers

import (
	"slotchain/services/availability"
	"slotchain/services/booking"
	"slotchain/services/meetings"
	"slotchain/utils"
)

// HandlerBundle groups the services the HTTP layer talks to.
type HandlerBundle struct {
	Availability availability.AvailabilityService
	Booking      booking.BookingService
	Meetings     meetings.MeetingAccessService
	Health       *utils.HealthMonitor
}
