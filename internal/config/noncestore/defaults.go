package noncestore

import "time"

const (
	// defaultBackend 进程内缓存
	defaultBackend = BackendMemory

	// defaultTTL 已提交 nonce 的缓存时间，过期后以链上值为准
	defaultTTL = 10 * time.Minute

	// defaultRedisAddr 本地 Redis
	defaultRedisAddr = "127.0.0.1:6379"

	// defaultKeyPrefix Redis 键前缀
	defaultKeyPrefix = "arcade:nonce:"

	// defaultDialTimeout Redis 连接超时
	defaultDialTimeout = 5 * time.Second
)
