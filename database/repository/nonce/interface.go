// File: database/repository/nonce/interface.go
package nonceRepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"slotchain/models"
)

var ErrNotFound = errors.New("nonce not found")

// NonceStore holds at most one outstanding challenge per key. Put replaces any
// previous entry.
type NonceStore interface {
	Put(ctx context.Context, key string, entry models.NonceEntry) error
	Get(ctx context.Context, key string) (*models.NonceEntry, error)
	// Consume atomically deletes the entry under key only if it still holds
	// nonce. It reports false when the entry is gone or was reissued, so
	// concurrent redemptions of one nonce see exactly one true.
	Consume(ctx context.Context, key, nonce string) (bool, error)
	// SweepExpired removes entries expired at now and returns how many it removed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// Key builds the store key for a wallet and token pair. Wallets compare
// case-insensitively.
func Key(walletAddress, tokenID string) string {
	return strings.ToLower(walletAddress) + ":" + tokenID
}
