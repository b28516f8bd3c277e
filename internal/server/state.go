package server

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	oauthStatePrefix = "oauth_state:"
	oauthStateTTL    = 10 * time.Minute
)

// oauthStateStore persists the one-time state nonce between the provider
// redirect and the callback.
type oauthStateStore interface {
	Put(ctx context.Context, state string) error
	// Take removes the state and reports whether it existed, so a replayed
	// callback finds nothing.
	Take(ctx context.Context, state string) (bool, error)
}

type redisStateStore struct {
	client *redis.Client
}

func (s *redisStateStore) Put(ctx context.Context, state string) error {
	return s.client.Set(ctx, oauthStatePrefix+state, "1", oauthStateTTL).Err()
}

func (s *redisStateStore) Take(ctx context.Context, state string) (bool, error) {
	err := s.client.GetDel(ctx, oauthStatePrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
