package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned by Revoke when no Redis client is configured.
var ErrUnavailable = errors.New("token store unavailable")

const revokedPrefix = "blacklist:"

// Store records revoked token ids until their natural expiry.
type Store struct {
	client *redis.Client
}

// New returns a Store backed by client. A nil client yields a store that
// treats every token as live and refuses revocations.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Available reports whether revocations can be recorded.
func (s *Store) Available() bool {
	return s != nil && s.client != nil
}

// Revoke marks jti as revoked for ttl. A non-positive ttl is a no-op because
// the token has already expired.
func (s *Store) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !s.Available() {
		return ErrUnavailable
	}
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !s.Available() || jti == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks connectivity for the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}
