package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/linkguard/internal/core"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const redisKeyPrefix = "linkguard:policy:"

// redisClient is the subset of *redis.Client the store uses
type redisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisOptions holds configuration for connecting to Redis
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Retries  uint64
}

// RedisStore keeps one JSON document per tenant
type RedisStore struct {
	client redisClient
	logger *zap.Logger
}

// NewRedisStore connects to Redis and waits for it to answer a ping
func NewRedisStore(ctx context.Context, options RedisOptions, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       options.DB,
	})

	b := retry.NewFibonacci(1 * time.Second)
	err := retry.Do(ctx, retry.WithMaxRetries(options.Retries, b), func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable yet", zap.String("address", options.Address), zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Opened Redis connection", zap.String("address", options.Address), zap.Int("db", options.DB))
	return newRedisStore(client, logger), nil
}

func newRedisStore(client redisClient, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

// Get retrieves the policy for a tenant
func (s *RedisStore) Get(ctx context.Context, tenantID string) (*core.TenantPolicy, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+tenantID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("failed to query policy: %w", err)
	}
	return unmarshalRecord(data)
}

// Save stores a policy snapshot without expiry
func (s *RedisStore) Save(ctx context.Context, policy *core.TenantPolicy) error {
	data, err := marshalRecord(policy)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+policy.TenantID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// Delete removes a tenant's policy
func (s *RedisStore) Delete(ctx context.Context, tenantID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+tenantID).Err(); err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	return nil
}

// Stop closes the Redis connection
func (s *RedisStore) Stop() {
	if err := s.client.Close(); err != nil {
		s.logger.Error("Failed to close Redis connection", zap.Error(err))
	}
}
