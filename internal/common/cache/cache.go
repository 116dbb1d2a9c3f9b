package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"farcaster-claim-backend/internal/platform/redis"
)

// ErrCacheMiss reports an absent key, as opposed to a store failure.
var ErrCacheMiss = errors.New("cache: key not found")

type CacheService struct {
	redisClient *redis.Client
}

func NewCacheService(redisClient *redis.Client) *CacheService {
	return &CacheService{
		redisClient: redisClient,
	}
}

// CampaignKey is the cache key for a campaign directory airdrop record.
func CampaignKey(id string) string {
	return "campaign:" + id
}

// TokenKey is the cache key for token metadata on a chain.
func TokenKey(chainID int64, address string) string {
	return fmt.Sprintf("token:%d:%s", chainID, address)
}

// SessionKey is the storage key for a claim session.
func SessionKey(id string) string {
	return "claim:session:" + id
}

func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redisClient.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redisClient.Set(ctx, key, string(data), ttl).Err()
}

func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.redisClient.Del(ctx, key).Err()
}
