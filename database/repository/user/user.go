// File: database/repository/user/user.go
package userRepo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"slotchain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("user not found")

// UserRepository reads creator profiles. Profiles are written elsewhere.
type UserRepository interface {
	GetByWalletAddress(ctx context.Context, walletAddress string) (*models.User, error)
}

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) UserRepository {
	return &MongoUserRepo{coll: db.Collection("users")}
}

// GetByWalletAddress fetches the profile fields the booking flow needs.
func (r *MongoUserRepo) GetByWalletAddress(ctx context.Context, walletAddress string) (*models.User, error) {
	opts := options.FindOne().SetProjection(bson.M{"walletAddress": 1, "fullName": 1, "email": 1})

	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"walletAddress": walletAddress}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", walletAddress, err)
	}
	return &user, nil
}

// MemoryUserRepo is a map-backed UserRepository.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepo(users ...models.User) *MemoryUserRepo {
	r := &MemoryUserRepo{users: make(map[string]models.User)}
	for _, u := range users {
		r.users[u.WalletAddress] = u
	}
	return r
}

func (r *MemoryUserRepo) GetByWalletAddress(ctx context.Context, walletAddress string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[walletAddress]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
