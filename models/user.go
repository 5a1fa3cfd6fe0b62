package models

import "time"

// User is a creator profile. Only the fields the booking flow reads are mapped.
type User struct {
	WalletAddress string    `bson:"walletAddress" json:"walletAddress"`
	FullName      string    `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Email         string    `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt     time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt     time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
