// Package noncestore 提供合约网关的 nonce 缓存实现
//
// 记录每个钱包已成功提交的下一个 nonce，使同一钱包的连续操作在前一个尚未上链时
// 也不会复用 nonce。两种后端：
//   - MemoryStore：进程内 BigCache
//   - RedisStore：多进程共享
package noncestore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/gateway"
	infraClock "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
)

// MemoryStore 基于 BigCache 的进程内 NonceStore
//
// BigCache 只在清理窗口到来时淘汰条目，因此记录中同时保存到期时间，
// 读取时自行判断是否过期。
type MemoryStore struct {
	cache *bigcache.BigCache
	ttl   time.Duration
	clock infraClock.Clock

	mu     sync.Mutex
	closed bool
}

// 确保实现接口
var _ gateway.NonceStore = (*MemoryStore)(nil)

// NewMemoryStore 创建进程内 NonceStore
func NewMemoryStore(ttl time.Duration, c infraClock.Clock) (*MemoryStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("nonce ttl must be positive")
	}
	config := bigcache.DefaultConfig(ttl)
	config.Shards = 16
	config.MaxEntriesInWindow = 1024
	config.MaxEntrySize = 128
	config.CleanWindow = ttl
	config.Verbose = false

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("create bigcache: %w", err)
	}
	return &MemoryStore{cache: cache, ttl: ttl, clock: clock.OrSystem(c)}, nil
}

func memoryKey(wallet common.Address) string {
	return strings.ToLower(wallet.Hex())
}

// Next 实现 gateway.NonceStore
func (s *MemoryStore) Next(ctx context.Context, wallet common.Address) (*big.Int, bool, error) {
	data, err := s.cache.Get(memoryKey(wallet))
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read nonce for %s: %w", wallet.Hex(), err)
	}

	next, expiresAt, ok := decodeEntry(data)
	if !ok || !s.clock.Now().Before(expiresAt) {
		_ = s.cache.Delete(memoryKey(wallet))
		return nil, false, nil
	}
	return next, true, nil
}

// Commit 实现 gateway.NonceStore
func (s *MemoryStore) Commit(ctx context.Context, wallet common.Address, next *big.Int) error {
	if next == nil || next.Sign() < 0 {
		return fmt.Errorf("invalid nonce %v", next)
	}
	entry := encodeEntry(next, s.clock.Now().Add(s.ttl))
	if err := s.cache.Set(memoryKey(wallet), entry); err != nil {
		return fmt.Errorf("commit nonce for %s: %w", wallet.Hex(), err)
	}
	return nil
}

// Reset 实现 gateway.NonceStore
func (s *MemoryStore) Reset(ctx context.Context, wallet common.Address) error {
	err := s.cache.Delete(memoryKey(wallet))
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("reset nonce for %s: %w", wallet.Hex(), err)
	}
	return nil
}

// Close 实现 gateway.NonceStore
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cache.Close()
}

// encodeEntry 格式：{十进制 nonce}|{到期 UnixNano}
func encodeEntry(next *big.Int, expiresAt time.Time) []byte {
	return []byte(next.String() + "|" + strconv.FormatInt(expiresAt.UnixNano(), 10))
}

func decodeEntry(data []byte) (*big.Int, time.Time, bool) {
	nonce, expiry, found := strings.Cut(string(data), "|")
	if !found {
		return nil, time.Time{}, false
	}
	next, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		return nil, time.Time{}, false
	}
	ns, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return nil, time.Time{}, false
	}
	return next, time.Unix(0, ns), true
}
