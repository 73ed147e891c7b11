package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/filedesk/filedesk/internal/auth"
)

// sessionPrefix is the Redis key prefix for server-side sessions.
const sessionPrefix = "session:"

// cachedSession is the JSON stored under a session key.
type cachedSession struct {
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveSession stores id under key for ttl.
func (c *Cache) SaveSession(ctx context.Context, key string, id auth.Identity, ttl time.Duration) error {
	data, err := json.Marshal(cachedSession{
		CustomerID: id.CustomerID,
		Name:       id.Name,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the identity stored under key.
// Returns ErrCacheMiss if the session is absent, expired or corrupted.
func (c *Cache) LoadSession(ctx context.Context, key string) (*auth.Identity, error) {
	data, err := c.client.Get(ctx, sessionPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil || cached.CustomerID == "" {
		// Corrupted entry - treat as miss
		return nil, ErrCacheMiss
	}

	return &auth.Identity{CustomerID: cached.CustomerID, Name: cached.Name}, nil
}

// DeleteSession removes the session under key. Missing keys are not an error.
func (c *Cache) DeleteSession(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, sessionPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
