package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/config"
)

// RedisMemberCache implements MemberCache on redis.
type RedisMemberCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisMemberCache(cfg config.RedisConfig) (*RedisMemberCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMemberCache{
		client: client,
		prefix: cfg.MemberPrefix,
		ttl:    cfg.MemberTTL,
	}, nil
}

func (c *RedisMemberCache) key(channelID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, channelID)
}

func (c *RedisMemberCache) GetMembers(ctx context.Context, channelID string) ([]string, error) {
	data, err := c.client.Get(ctx, c.key(channelID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var memberIDs []string
	if err := json.Unmarshal(data, &memberIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return memberIDs, nil
}

func (c *RedisMemberCache) SetMembers(ctx context.Context, channelID string, memberIDs []string) error {
	data, err := json.Marshal(memberIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.key(channelID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisMemberCache) Invalidate(ctx context.Context, channelID string) error {
	if err := c.client.Del(ctx, c.key(channelID)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (c *RedisMemberCache) Close() error {
	return c.client.Close()
}
