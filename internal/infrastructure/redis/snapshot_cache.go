package redis

import (
	"context"
	"fmt"
	"strconv"

	"auction-marketplace/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// RedisSnapshotCache keeps a best-effort (price, status) snapshot per
// auction for cheap read-path checks. Storage remains authoritative.
type RedisSnapshotCache struct {
	client *redis.Client
}

func NewRedisSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func (r *RedisSnapshotCache) SetSnapshot(ctx context.Context, auction *domain.Auction) error {
	key := fmt.Sprintf("auction:%s:snapshot", auction.ID)

	return r.client.HSet(ctx, key,
		"current_price", auction.CurrentPrice.String(),
		"status", int(auction.Status),
		"updated_at", auction.UpdatedAt.Unix(),
	).Err()
}

func (r *RedisSnapshotCache) GetSnapshot(ctx context.Context, auctionID string) (decimal.Decimal, domain.AuctionStatus, bool, error) {
	key := fmt.Sprintf("auction:%s:snapshot", auctionID)

	result, err := r.client.HMGet(ctx, key, "current_price", "status").Result()
	if err != nil {
		return decimal.Zero, domain.AuctionActive, false, err
	}
	if result[0] == nil || result[1] == nil {
		return decimal.Zero, domain.AuctionActive, false, nil
	}

	price, err := decimal.NewFromString(result[0].(string))
	if err != nil {
		return decimal.Zero, domain.AuctionActive, false, err
	}
	status, err := strconv.Atoi(result[1].(string))
	if err != nil {
		return decimal.Zero, domain.AuctionActive, false, err
	}

	return price, domain.AuctionStatus(status), true, nil
}
