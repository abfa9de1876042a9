package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys the gateway persists per browser session. DraftKey builds the
// per-form draft key.
const (
	KeyUser     = "user"
	KeyIDToken  = "idToken"
	KeyClientIP = "client_ip"
)

// DraftKey returns the durable draft key for a form. Drafts are addressed by
// form id so concurrent sessions for different forms never collide.
func DraftKey(formID string) string {
	return "pending_answers_" + formID
}

// Store is the durable per-session key-value capability handed to the
// identity resolver and the draft manager. Get returns ("", nil) when the
// key is absent.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed session store. Entries expire after
// ttl so abandoned sessions do not accumulate.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *redisStore) storeKey(sessionID, key string) string {
	return "session:" + sessionID + ":" + key
}

func (s *redisStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	val, err := s.client.Get(ctx, s.storeKey(sessionID, key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, sessionID, key, value string) error {
	return s.client.Set(ctx, s.storeKey(sessionID, key), value, s.ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, sessionID, key string) error {
	return s.client.Del(ctx, s.storeKey(sessionID, key)).Err()
}
