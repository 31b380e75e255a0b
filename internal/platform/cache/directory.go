package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pulseid/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const directoryGenKey = "users:directory:gen"

// DirectoryPage is one cached page of the user directory.
type DirectoryPage struct {
	Users []model.User `json:"users"`
	Total int          `json:"total"`
}

// DirectoryCache keeps short-lived copies of user-directory pages in Redis.
// Every write to the users table bumps a generation counter, so stale pages
// simply stop being addressed and expire on their own.
type DirectoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDirectoryCache(client *redis.Client, ttl time.Duration) *DirectoryCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DirectoryCache{client: client, ttl: ttl}
}

func (c *DirectoryCache) GetPage(ctx context.Context, page, pageSize int) (*DirectoryPage, bool, error) {
	key, err := c.pageKey(ctx, page, pageSize)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get directory page failed: %w", err)
	}

	var cached DirectoryPage
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached directory page failed: %w", err)
	}
	return &cached, true, nil
}

func (c *DirectoryCache) SetPage(ctx context.Context, page, pageSize int, p *DirectoryPage) error {
	key, err := c.pageKey(ctx, page, pageSize)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal directory page failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set directory page failed: %w", err)
	}
	return nil
}

// Invalidate bumps the generation counter so all cached pages are orphaned.
func (c *DirectoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, directoryGenKey).Err(); err != nil {
		return fmt.Errorf("redis bump directory generation failed: %w", err)
	}
	return nil
}

func (c *DirectoryCache) pageKey(ctx context.Context, page, pageSize int) (string, error) {
	gen, err := c.client.Get(ctx, directoryGenKey).Int64()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("redis get directory generation failed: %w", err)
	}
	return fmt.Sprintf("users:directory:g%d:p%d:s%d", gen, page, pageSize), nil
}
