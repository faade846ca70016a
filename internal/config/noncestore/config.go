// Package noncestore 提供 nonce 缓存配置
package noncestore

import (
	"time"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// 存储后端
const (
	BackendMemory = "memory" // 进程内 BigCache
	BackendRedis  = "redis"  // 多进程共享
)

// NonceStoreOptions nonce 缓存配置选项
type NonceStoreOptions struct {
	Backend       string        `json:"backend"`
	TTL           time.Duration `json:"ttl"`
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	KeyPrefix     string        `json:"key_prefix"`
	DialTimeout   time.Duration `json:"dial_timeout"`
}

// Config nonce 缓存配置实现
type Config struct {
	options *NonceStoreOptions
}

// New 创建 nonce 缓存配置
func New(userConfig *types.UserNonceStoreConfig) *Config {
	options := &NonceStoreOptions{
		Backend:     defaultBackend,
		TTL:         defaultTTL,
		RedisAddr:   defaultRedisAddr,
		KeyPrefix:   defaultKeyPrefix,
		DialTimeout: defaultDialTimeout,
	}

	if userConfig != nil {
		if userConfig.Backend != nil {
			options.Backend = *userConfig.Backend
		}
		if userConfig.TTL != nil {
			if d, err := time.ParseDuration(*userConfig.TTL); err == nil && d > 0 {
				options.TTL = d
			}
		}
		if userConfig.RedisAddr != nil {
			options.RedisAddr = *userConfig.RedisAddr
		}
		if userConfig.RedisPassword != nil {
			options.RedisPassword = *userConfig.RedisPassword
		}
		if userConfig.RedisDB != nil {
			options.RedisDB = *userConfig.RedisDB
		}
		if userConfig.KeyPrefix != nil {
			options.KeyPrefix = *userConfig.KeyPrefix
		}
	}

	return &Config{options: options}
}

// GetOptions 获取配置选项
func (c *Config) GetOptions() *NonceStoreOptions {
	return c.options
}
