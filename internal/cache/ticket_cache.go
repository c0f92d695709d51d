package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-desk/internal/domain"
)

const keyOwnerList = "tickets:owner:"

// TicketCache caches per-owner ticket listings in Redis. Entries are
// invalidated on every ticket write by that owner.
type TicketCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTicketCache returns a new TicketCache.
func NewTicketCache(rdb *redis.Client, ttl time.Duration) *TicketCache {
	return &TicketCache{rdb: rdb, ttl: ttl}
}

// GetOwnerList returns the cached listing for an owner, or nil on miss.
func (c *TicketCache) GetOwnerList(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	b, err := c.rdb.Get(ctx, keyOwnerList+ownerID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []domain.Ticket
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetOwnerList stores the listing for an owner.
func (c *TicketCache) SetOwnerList(ctx context.Context, ownerID string, list []domain.Ticket) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyOwnerList+ownerID, b, c.ttl).Err()
}

// Invalidate drops the cached listing for an owner.
func (c *TicketCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.rdb.Del(ctx, keyOwnerList+ownerID).Err()
}
