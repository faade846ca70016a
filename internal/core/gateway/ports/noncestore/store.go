package noncestore

import (
	"fmt"
	"strconv"

	noncestoreconfig "github.com/cosmasken/arcadehub-sub003/internal/config/noncestore"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/gateway"
	infraClock "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
)

// New 按配置创建 NonceStore
//
// chainID 写入 Redis 键，避免不同链共用同一个 Redis 时互相覆盖。
func New(options *noncestoreconfig.NonceStoreOptions, chainID uint64, c infraClock.Clock) (gateway.NonceStore, error) {
	if options == nil {
		options = noncestoreconfig.New(nil).GetOptions()
	}

	switch options.Backend {
	case "", noncestoreconfig.BackendMemory:
		return NewMemoryStore(options.TTL, c)
	case noncestoreconfig.BackendRedis:
		client, err := newGoRedisClient(redisConfig{
			Addr:        options.RedisAddr,
			Password:    options.RedisPassword,
			DB:          options.RedisDB,
			DialTimeout: options.DialTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis client: %w", err)
		}
		prefix := options.KeyPrefix + strconv.FormatUint(chainID, 10) + ":"
		store, err := NewRedisStore(client, prefix, options.TTL)
		if err != nil {
			client.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown nonce store backend %q", options.Backend)
	}
}
