package nonceRepo

import (
	"context"
	"fmt"
	"time"

	"slotchain/models"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "slotchain:nonce:"

// consumeScript deletes the hash only while it still holds the expected nonce.
var consumeScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "nonce") == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisNonceStore keeps challenges in Redis so every replica sees the same
// entries. Each entry is a hash with nonce and expiresAt fields; expiry is
// delegated to key TTLs.
type RedisNonceStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{client: client, now: time.Now}
}

func (s *RedisNonceStore) Put(ctx context.Context, key string, entry models.NonceEntry) error {
	ttl := entry.ExpiresAt.Sub(s.now())
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	k := redisKeyPrefix + key
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "nonce", entry.Nonce, "expiresAt", entry.ExpiresAt.UTC().Format(time.RFC3339Nano))
		pipe.PExpire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}
	return nil
}

func (s *RedisNonceStore) Get(ctx context.Context, key string) (*models.NonceEntry, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load nonce: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expiresAt"])
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce expiry: %w", err)
	}
	return &models.NonceEntry{Nonce: fields["nonce"], ExpiresAt: expiresAt}, nil
}

func (s *RedisNonceStore) Consume(ctx context.Context, key, nonce string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, nonce).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return n > 0, nil
}

// SweepExpired is a no-op: Redis evicts keys when their TTL lapses.
func (s *RedisNonceStore) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
