// Package cache 提供分析結果的快取，後端可為記憶體或 Redis。
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"greenbite/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// Cache 以命名空間區隔的字串快取；未命中時回傳 common.ErrCacheMiss
type Cache interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Close() error
}

// New 依設定建立快取；停用時回傳 nil
func New(ctx context.Context, cfg *config.Config) (Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return NewRedisStore(client, cfg.Cache.TTL), nil
	default:
		return NewManager(cfg.Cache), nil
	}
}

// hashKey 計算鍵值的 SHA-256 哈希值
func hashKey(namespace, key string) string {
	hash := sha256.Sum256([]byte(key))
	return namespace + ":" + hex.EncodeToString(hash[:])
}
