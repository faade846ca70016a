package noncestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// errKeyNotFound 键不存在
var errKeyNotFound = errors.New("key not found")

// redisClient Redis 客户端接口（用于依赖注入和测试）
//
// ⚠️ **可见性**：此接口为包内私有接口，仅用于实现细节，不对外暴露。
type redisClient interface {
	// Set 设置键值对
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get 获取键对应的值，不存在时返回 errKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Del 删除键
	Del(ctx context.Context, keys ...string) (int64, error)
	// Ping 测试连接
	Ping(ctx context.Context) error
	// Close 关闭连接
	Close() error
}

// goRedisClient go-redis 客户端实现
//
// 🔒 **并发安全**：go-redis 客户端本身是并发安全的
type goRedisClient struct {
	client *redis.Client
}

// 确保实现接口
var _ redisClient = (*goRedisClient)(nil)

// redisConfig Redis 连接参数
type redisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// newGoRedisClient 创建 go-redis 客户端并测试连接
func newGoRedisClient(cfg redisConfig) (redisClient, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &goRedisClient{client: client}, nil
}

// Set 设置键值对
func (c *goRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get 获取键对应的值
func (c *goRedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	result := c.client.Get(ctx, key)
	if err := result.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", errKeyNotFound, key)
		}
		return nil, err
	}
	return []byte(result.Val()), nil
}

// Del 删除键
func (c *goRedisClient) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return c.client.Del(ctx, keys...).Result()
}

// Ping 测试连接
func (c *goRedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *goRedisClient) Close() error {
	return c.client.Close()
}
