package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBag stores carts as hashes keyed per buyer so the selection
// survives API process restarts.
type RedisBag struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBag(addr, password string, ttl time.Duration) *RedisBag {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisBag{client: c, ttl: ttl}
}

func cartKey(buyerID int64) string { return fmt.Sprintf("cart:%d", buyerID) }

func (b *RedisBag) Get(ctx context.Context, buyerID int64) (Items, error) {
	raw, err := b.client.HGetAll(ctx, cartKey(buyerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart read: %w", err)
	}
	items := make(Items, len(raw))
	for k, v := range raw {
		pid, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseInt(v, 10, 64)
		if err != nil || qty <= 0 {
			continue
		}
		items[pid] = qty
	}
	return items, nil
}

func (b *RedisBag) SetItem(ctx context.Context, buyerID, productID, qty int64) error {
	key := cartKey(buyerID)
	if qty <= 0 {
		if err := b.client.HDel(ctx, key, strconv.FormatInt(productID, 10)).Err(); err != nil {
			return fmt.Errorf("cart remove: %w", err)
		}
		return nil
	}
	if err := b.client.HSet(ctx, key, strconv.FormatInt(productID, 10), qty).Err(); err != nil {
		return fmt.Errorf("cart write: %w", err)
	}
	// refresh expiry on every touch; an abandoned cart eventually vanishes
	return b.client.Expire(ctx, key, b.ttl).Err()
}

func (b *RedisBag) Clear(ctx context.Context, buyerID int64) error {
	return b.client.Del(ctx, cartKey(buyerID)).Err()
}
