package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"makeitreel/internal/cache"
)

const (
	oauthStateKeyPrefix = "oauth_state:"
	// OAuthStateTTL bounds how long a consent round-trip may take.
	OAuthStateTTL = 10 * time.Minute
)

// StateStore keeps one-time OAuth state values between the redirect to the
// provider and the callback.
type StateStore interface {
	NewState(ctx context.Context) (string, error)
	ConsumeState(ctx context.Context, state string) (bool, error)
}

// RedisStateStore handles storage of OAuth state values in Redis.
type RedisStateStore struct {
	cache *cache.Client
}

var _ StateStore = (*RedisStateStore)(nil)

// NewStateStore creates a new state store.
func NewStateStore(cache *cache.Client) *RedisStateStore {
	return &RedisStateStore{cache: cache}
}

// NewState generates and records a fresh state value.
func (s *RedisStateStore) NewState(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.cache.Set(ctx, oauthStateKeyPrefix+state, []byte("1"), OAuthStateTTL); err != nil {
		return "", err
	}
	return state, nil
}

// ConsumeState reports whether state was issued and not used yet, and
// removes it so it cannot be replayed.
func (s *RedisStateStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	data, err := s.cache.GetDel(ctx, oauthStateKeyPrefix+state)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}
