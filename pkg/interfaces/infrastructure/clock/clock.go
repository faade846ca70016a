// Package clock provides clock interfaces.
package clock

import "time"

// Clock 提供统一的时间源接口（基础设施层接口）
//
// 会话迁移时间戳、合约操作耗时与上链轮询间隔都经由 Clock 获取，
// 测试中可替换为 MockClock。
type Clock interface {
	// Now 获取当前时间
	Now() time.Time

	// Since 计算从指定时间到现在的持续时间
	Since(t time.Time) time.Duration

	// After 在 d 之后发送当前时间
	After(d time.Duration) <-chan time.Time
}
