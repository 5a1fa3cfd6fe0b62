// File: database/repository/availability/crud.go
package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotchain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoAvailabilityRepo) GetByWalletAddress(ctx context.Context, walletAddress string) (*models.Availability, error) {
	var doc models.Availability
	err := r.coll.FindOne(ctx, bson.M{"walletAddress": walletAddress}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability for %s: %w", walletAddress, err)
	}
	return &doc, nil
}

func (r *mongoAvailabilityRepo) Upsert(ctx context.Context, doc *models.Availability) (*models.Availability, error) {
	now := time.Now().UTC()
	filter := bson.M{"walletAddress": doc.WalletAddress}
	update := bson.M{
		"$set": bson.M{
			"timezone":          doc.Timezone,
			"interval":          doc.Interval,
			"range":             doc.Range,
			"unavailableRanges": doc.UnavailableRanges,
			"availableDays":     doc.AvailableDays,
			"updatedAt":         now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Availability
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, fmt.Errorf("failed to upsert availability for %s: %w", doc.WalletAddress, err)
	}
	return &saved, nil
}

// SetSlotBooked is a single-document compare-and-swap: the filter only matches
// while the slot still holds !booked, so two concurrent reservations of the
// same slot cannot both report success.
func (r *mongoAvailabilityRepo) SetSlotBooked(ctx context.Context, walletAddress, date, slotID string, booked bool) error {
	filter := bson.M{
		"walletAddress": walletAddress,
		"availableDays": bson.M{"$elemMatch": bson.M{
			"date":  date,
			"slots": bson.M{"$elemMatch": bson.M{"id": slotID, "booked": !booked}},
		}},
	}
	update := bson.M{"$set": bson.M{
		"availableDays.$[d].slots.$[s].booked": booked,
		"updatedAt":                            time.Now().UTC(),
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"d.date": date},
			bson.M{"s.id": slotID, "s.booked": !booked},
		},
	})

	res, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to set slot %s on %s booked=%t: %w", slotID, date, booked, err)
	}
	if res.ModifiedCount == 0 {
		return ErrSlotNotAvailable
	}
	return nil
}
