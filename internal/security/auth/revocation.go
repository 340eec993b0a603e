package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/aryan0dhankhar/issuedesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/issuedesk/pkg/cache"
)

const revokedKeyPrefix = "revoked:"

// RevocationStore remembers logged-out token IDs until the tokens expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationStore shares revocations across server replicas.
type RedisRevocationStore struct {
	client *redis.Client
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ok, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID)
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return ok, nil
}

// MemoryRevocationStore keeps revocations in process. Expired entries are
// removed by Purge, which the revocation sweeper calls periodically.
type MemoryRevocationStore struct {
	entries *cache.Cache[struct{}]
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: cache.New[struct{}]()}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	s.entries.Set(revokedKeyPrefix+tokenID, struct{}{}, ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.entries.Get(revokedKeyPrefix + tokenID)
	return ok, nil
}

// Purge drops expired revocations and returns how many were removed.
func (s *MemoryRevocationStore) Purge() int {
	return s.entries.Purge()
}

var (
	_ RevocationStore = (*RedisRevocationStore)(nil)
	_ RevocationStore = (*MemoryRevocationStore)(nil)
)
