package models

import "time"

// MeetingRequest is what the booking flow asks a meeting provider to schedule.
type MeetingRequest struct {
	Topic           string
	StartTimeLocal  string // "2006-01-02T15:04:05" in Timezone
	DurationMinutes int
	Timezone        string
	Agenda          string
}

// Meeting is the provider's view of a created meeting.
type Meeting struct {
	ID      string `json:"id"`
	JoinURL string `json:"join_url"`
	HostURL string `json:"start_url"`
}

// NonceEntry is a single-use challenge bound to a (wallet, token) pair.
type NonceEntry struct {
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NonceRequest asks for a challenge to sign.
type NonceRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	TokenID       string `json:"tokenId" binding:"required"`
}

type NonceResponse struct {
	Nonce string `json:"nonce"`
}

// AccessMeetingRequest redeems a signed challenge for the join link.
type AccessMeetingRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	TokenID       string `json:"tokenId" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
}

// MeetingAccess is returned once the caller proved current token custody.
type MeetingAccess struct {
	JoinURL          string    `json:"joinUrl"`
	MeetingStartTime time.Time `json:"meetingStartTime"`
	MeetingEndTime   time.Time `json:"meetingEndTime"`
	MeetingID        string    `json:"zoomMeetingId,omitempty"`
}
