package noncestore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/gateway"
)

// RedisStore Redis 版本的 NonceStore 实现
//
// 多个进程共用同一组钱包时使用。
//   - Key 格式：{prefix}{chainID}:{wallet 小写十六进制}
//   - Value 格式：十进制 nonce
//   - TTL：使用 Redis EXPIRE 实现自动过期，过期后以链上值为准
type RedisStore struct {
	client    redisClient
	keyPrefix string
	ttl       time.Duration
}

// 确保实现接口
var _ gateway.NonceStore = (*RedisStore)(nil)

// NewRedisStore 创建 Redis 版 NonceStore
func NewRedisStore(client redisClient, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

func (s *RedisStore) key(wallet common.Address) string {
	return s.keyPrefix + strings.ToLower(wallet.Hex())
}

// Next 实现 gateway.NonceStore
func (s *RedisStore) Next(ctx context.Context, wallet common.Address) (*big.Int, bool, error) {
	data, err := s.client.Get(ctx, s.key(wallet))
	if err != nil {
		if errors.Is(err, errKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read nonce for %s: %w", wallet.Hex(), err)
	}
	next, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		// 损坏的记录视为不存在
		_, _ = s.client.Del(ctx, s.key(wallet))
		return nil, false, nil
	}
	return next, true, nil
}

// Commit 实现 gateway.NonceStore
func (s *RedisStore) Commit(ctx context.Context, wallet common.Address, next *big.Int) error {
	if next == nil || next.Sign() < 0 {
		return fmt.Errorf("invalid nonce %v", next)
	}
	if err := s.client.Set(ctx, s.key(wallet), next.String(), s.ttl); err != nil {
		return fmt.Errorf("commit nonce for %s: %w", wallet.Hex(), err)
	}
	return nil
}

// Reset 实现 gateway.NonceStore
func (s *RedisStore) Reset(ctx context.Context, wallet common.Address) error {
	if _, err := s.client.Del(ctx, s.key(wallet)); err != nil {
		return fmt.Errorf("reset nonce for %s: %w", wallet.Hex(), err)
	}
	return nil
}

// Close 实现 gateway.NonceStore
func (s *RedisStore) Close() error {
	return s.client.Close()
}
