package models

import "time"

const BookingStatusConfirmed = "confirmed"

// Booking is the durable record of a completed reservation, keyed by the
// on-chain token id minted for it.
type Booking struct {
	TokenID              string    `bson:"tokenId" json:"tokenId"`
	CreatorWalletAddress string    `bson:"creatorWalletAddress" json:"creatorWalletAddress"`
	CreatorEmail         string    `bson:"creatorEmail" json:"creatorEmail"`
	CreatorName          string    `bson:"creatorName,omitempty" json:"creatorName,omitempty"`
	BuyerEmail           string    `bson:"userEmail" json:"buyerEmail"`
	BuyerName            string    `bson:"buyerName,omitempty" json:"buyerName,omitempty"`
	SlotID               string    `bson:"slotId" json:"slotId"`
	Date                 string    `bson:"date" json:"date"`
	MeetingID            string    `bson:"zoomMeetingId,omitempty" json:"meetingId,omitempty"`
	MeetingJoinURL       string    `bson:"zoomJoinUrl,omitempty" json:"meetingJoinUrl,omitempty"`
	MeetingHostURL       string    `bson:"zoomStartUrl,omitempty" json:"meetingHostUrl,omitempty"`
	MeetingStartTime     time.Time `bson:"meetingStartTime" json:"meetingStartTime"`
	MeetingEndTime       time.Time `bson:"meetingEndTime" json:"meetingEndTime"`
	Status               string    `bson:"status" json:"status"`
	CreatedAt            time.Time `bson:"createdAt" json:"createdAt"`
}

// BookSlotRequest is the payload for reserving a slot.
type BookSlotRequest struct {
	CreatorAddress string `json:"creatorAddress" binding:"required"`
	Date           string `json:"date" binding:"required"`
	SlotID         string `json:"slotId" binding:"required"`
	BuyerEmail     string `json:"buyerEmail"`
	BuyerName      string `json:"buyerName,omitempty"`
	CreatorName    string `json:"creatorName,omitempty"`
	TokenID        string `json:"tokenId"`
}

// BookedMeeting describes the external meeting created for a booking.
type BookedMeeting struct {
	ID        string    `json:"id"`
	JoinURL   string    `json:"joinUrl"`
	HostURL   string    `json:"startUrl,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Timezone  string    `json:"timezone"`
}

// BookingConfirmation is returned to the buyer once every saga step succeeded.
type BookingConfirmation struct {
	Slot    TimeSlot      `json:"slot"`
	Meeting BookedMeeting `json:"zoomMeeting"`
}
