package badges

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const eventKeyPrefix = "badges:event:"

// Кэш обработанных событий, повторы из очереди отсекаются без обращения к БД
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(ctx context.Context, addr, user, pwd string, ttl time.Duration) (*CacheService, error) {
	if addr == "" {
		return nil, fmt.Errorf("env BADGES_CACHE_URL is not set")
	}
	// redis
	db := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    pwd,
		Username:    user,
		DB:          0,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	if err := db.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CacheService{db, ttl}, nil
}

func (c *CacheService) Close() error {
	return c.client.Close()
}

func (c *CacheService) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	err := c.client.Get(ctx, eventKeyPrefix+eventID).Err()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (c *CacheService) SetProcessed(ctx context.Context, eventID string) error {
	return c.client.Set(ctx, eventKeyPrefix+eventID, 1, c.ttl).Err()
}
