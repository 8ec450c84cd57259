package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"digimall/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "digimall"

type CacheService interface {
	// Tenant resolution
	GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	SetTenantByDomain(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error
	DeleteTenantDomain(ctx context.Context, domain string) error

	// Product caching
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product, ttl time.Duration) error
	DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	// GetDelString reads and removes key in one step, so only one caller
	// ever sees the value.
	GetDelString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient builds a client from a host:port or redis:// address.
func NewRedisClient(addr, password string, db int, logger *zap.Logger) *redis.Client {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis ping failed on initialization", zap.String("addr", parsedAddr), zap.Error(err))
	} else {
		logger.Info("redis connection established", zap.String("addr", parsedAddr))
	}
	return client
}

func NewRedisCacheService(client *redis.Client, logger *zap.Logger) CacheService {
	return &redisCacheService{client: client, logger: logger}
}

func tenantDomainKey(domain string) string {
	return fmt.Sprintf("%s:tenant:domain:%s", keyPrefix, strings.ToLower(domain))
}

func productKey(tenantID, productID uuid.UUID) string {
	return fmt.Sprintf("%s:product:%s:%s", keyPrefix, tenantID, productID)
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// Corrupt entries are dropped so the next read repopulates them.
		r.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	var tenant models.Tenant
	found, err := r.getJSON(ctx, tenantDomainKey(domain), &tenant)
	if err != nil || !found {
		return nil, err
	}
	return &tenant, nil
}

func (r *redisCacheService) SetTenantByDomain(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	return r.setJSON(ctx, tenantDomainKey(tenant.Domain), tenant, ttl)
}

func (r *redisCacheService) DeleteTenantDomain(ctx context.Context, domain string) error {
	return r.client.Del(ctx, tenantDomainKey(domain)).Err()
}

func (r *redisCacheService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	found, err := r.getJSON(ctx, productKey(tenantID, productID), &product)
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product, ttl time.Duration) error {
	return r.setJSON(ctx, productKey(tenantID, product.ID), product, ttl)
}

func (r *redisCacheService) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	return r.client.Del(ctx, productKey(tenantID, productID)).Err()
}

// InvalidateTenantCache removes every entry keyed by the tenant id.
func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("%s:*:%s:*", keyPrefix, tenantID)
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
	// The window starts with the first hit. INCR keeps the TTL set by SETNX.
	var count *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, cacheKey, 0, window)
		count = pipe.Incr(ctx, cacheKey)
		return nil
	})
	if err != nil {
		return true, err
	}

	return count.Val() > int64(limit), nil
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return r.client.Del(ctx, fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) GetDelString(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
