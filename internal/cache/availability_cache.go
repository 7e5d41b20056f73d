package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 5 * time.Second

type AvailabilityCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewAvailabilityCache(client redis.Cmdable, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AvailabilityCache{client: client, ttl: ttl}
}

func Key(eventID uuid.UUID) string {
	return fmt.Sprintf("availability:%s", eventID.String())
}

func (c *AvailabilityCache) Get(ctx context.Context, eventID uuid.UUID) (*inventory.Availability, error) {
	raw, err := c.client.Get(ctx, Key(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability %s: %w", eventID, err)
	}

	var availability inventory.Availability
	if err := json.Unmarshal(raw, &availability); err != nil {
		return nil, fmt.Errorf("decode availability %s: %w", eventID, err)
	}
	return &availability, nil
}

func (c *AvailabilityCache) Set(ctx context.Context, availability inventory.Availability) error {
	eventID, err := uuid.Parse(availability.EventID)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}

	raw, err := json.Marshal(availability)
	if err != nil {
		return fmt.Errorf("encode availability %s: %w", eventID, err)
	}

	if err := c.client.Set(ctx, Key(eventID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set availability %s: %w", eventID, err)
	}
	return nil
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	if err := c.client.Del(ctx, Key(eventID)).Err(); err != nil {
		return fmt.Errorf("invalidate availability %s: %w", eventID, err)
	}
	return nil
}
