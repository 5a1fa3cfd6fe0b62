package models

import "time"

// BookingEmail carries everything needed to notify both sides of a booking.
type BookingEmail struct {
	BuyerEmail   string    `json:"buyerEmail"`
	CreatorEmail string    `json:"creatorEmail"`
	CreatorName  string    `json:"creatorName,omitempty"`
	BuyerName    string    `json:"buyerName,omitempty"`
	JoinURL      string    `json:"joinUrl"`
	HostURL      string    `json:"startUrl,omitempty"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Timezone     string    `json:"timezone"`
}
