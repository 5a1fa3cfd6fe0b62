// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"
	"errors"

	"slotchain/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a wallet has no availability document.
	ErrNotFound = errors.New("availability not found")
	// ErrSlotNotAvailable is returned when a conditional slot flip matched nothing:
	// the slot is missing or already in the requested state.
	ErrSlotNotAvailable = errors.New("slot not available")
)

type AvailabilityRepository interface {
	GetByWalletAddress(ctx context.Context, walletAddress string) (*models.Availability, error)
	// Upsert replaces the schedule for doc.WalletAddress, creating it if needed.
	Upsert(ctx context.Context, doc *models.Availability) (*models.Availability, error)
	// SetSlotBooked flips a slot's booked flag to booked, but only if it currently
	// holds the opposite value. It returns ErrSlotNotAvailable otherwise.
	SetSlotBooked(ctx context.Context, walletAddress, date, slotID string, booked bool) error
}

type mongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo(db *mongo.Database) (AvailabilityRepository, error) {
	repo := &mongoAvailabilityRepo{coll: db.Collection("availabilities")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}
