package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const locatorHashKey = "inventory_audit:session_locators"

// LocatorMap implements domain.LocatorMap on a Redis hash, so multiple
// service instances can share one view of which document each live session
// is appending to. Entries survive process restarts, unlike the in-memory
// map.
type LocatorMap struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLocatorMap creates a Redis-backed LocatorMap.
func NewLocatorMap(client *redis.Client, logger *slog.Logger) *LocatorMap {
	return &LocatorMap{
		client: client,
		logger: logger.With("component", "redis_locator_map"),
	}
}

func (m *LocatorMap) Put(ctx context.Context, userID, locator string) (bool, error) {
	added, err := m.client.HSet(ctx, locatorHashKey, userID, locator).Result()
	if err != nil {
		return false, fmt.Errorf("failed to store session locator: %w", err)
	}
	// HSET reports the number of newly created fields; zero means the field
	// existed and was overwritten.
	return added == 0, nil
}

func (m *LocatorMap) Get(ctx context.Context, userID string) (string, bool, error) {
	locator, err := m.client.HGet(ctx, locatorHashKey, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to look up session locator: %w", err)
	}
	return locator, true, nil
}

func (m *LocatorMap) Delete(ctx context.Context, userID string) error {
	if err := m.client.HDel(ctx, locatorHashKey, userID).Err(); err != nil {
		return fmt.Errorf("failed to remove session locator: %w", err)
	}
	return nil
}
