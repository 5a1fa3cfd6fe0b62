// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"errors"

	"slotchain/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("booking not found")
	// ErrDuplicateTokenID is returned by Create when a booking already holds the token id.
	ErrDuplicateTokenID = errors.New("booking already recorded for token id")
)

type BookingRepository interface {
	GetByTokenID(ctx context.Context, tokenID string) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a MongoDB BookingRepository.
func NewMongoBookingRepo(db *mongo.Database) (BookingRepository, error) {
	repo := &mongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}
