package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/cannacore/compliance-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
}

func NewRedisCache() *redisCache {
	c := config.Get()
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisUrl(),
		Username: c.Clients.Redis.Username,
		Password: c.Clients.Redis.Password,
		DB:       c.Clients.Redis.DB,
	})
	return &redisCache{
		client: client,
	}
}

func complianceResultKey(requestID string) string {
	return fmt.Sprintf("compliance-result:%v", requestID)
}

func (c *redisCache) get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Get(ctx, key)
	if errors.Is(cmd.Err(), redis.Nil) {
		return nil, ErrNotFound
	}
	return cmd.Bytes()
}

// GetComplianceResult retrieves a recently observed poll response for a request id
func (c *redisCache) GetComplianceResult(ctx context.Context, requestID string) (*api.ComplianceResultResponse, error) {
	buf, err := c.get(ctx, complianceResultKey(requestID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var result api.ComplianceResultResponse
	err = json.Unmarshal(buf, &result)
	if err != nil {
		return nil, fmt.Errorf("redis unmarshal error: %w", err)
	}
	return &result, nil
}

// SetComplianceResult stores a poll response under a short expiration
func (c *redisCache) SetComplianceResult(ctx context.Context, requestID string, result api.ComplianceResultResponse) error {
	buf, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("unable to marshal for Redis cache: %w", err)
	}

	c.client.Set(ctx, complianceResultKey(requestID), string(buf), config.Get().Clients.Redis.Expiration)
	return nil
}
