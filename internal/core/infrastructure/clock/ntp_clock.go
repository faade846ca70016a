package clock

import (
	"sync"
	"time"

	"github.com/beevik/ntp"

	infraClock "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
)

// OffsetFunc 查询本机时间相对服务器的偏移
type OffsetFunc func(server string) (time.Duration, error)

// QueryNTP 通过 NTP 查询时间偏移
func QueryNTP(server string) (time.Duration, error) {
	resp, err := ntp.Query(server)
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// NTPClock 通过 NTP 周期性校正偏移的时钟
//
// Now 返回校正后的时间，回执与会话时间戳因此不受本机时钟漂移影响；
// After 与 Since 只依赖相对时长，偏移不改变其结果。
type NTPClock struct {
	server         string
	syncInterval   time.Duration
	backoffInitial time.Duration
	backoffMax     time.Duration
	query          OffsetFunc

	mu        sync.Mutex
	offset    time.Duration
	lastSync  time.Time
	backoff   time.Duration
	lastError error
}

// NTPOptions NTP 时钟参数
type NTPOptions struct {
	Server         string
	SyncInterval   time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	Query          OffsetFunc // 为 nil 时使用 QueryNTP
}

// NewNTPClock 创建 NTP 时钟并立即同步一次
// 初始同步失败不致命，偏移置零并在退避后重试。
func NewNTPClock(opts NTPOptions) *NTPClock {
	c := &NTPClock{
		server:         opts.Server,
		syncInterval:   opts.SyncInterval,
		backoffInitial: opts.BackoffInitial,
		backoffMax:     opts.BackoffMax,
		query:          opts.Query,
	}
	if c.query == nil {
		c.query = QueryNTP
	}
	if c.backoffInitial <= 0 {
		c.backoffInitial = 5 * time.Second
	}
	if c.backoffMax < c.backoffInitial {
		c.backoffMax = c.backoffInitial
	}
	c.mu.Lock()
	c.syncLocked()
	c.mu.Unlock()
	return c
}

func (c *NTPClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeSyncLocked()
	return time.Now().Add(c.offset)
}

func (c *NTPClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }

func (c *NTPClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Health 最近一次同步的状态
func (c *NTPClock) Health() (offset time.Duration, lastSync time.Time, lastError error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset, c.lastSync, c.lastError
}

func (c *NTPClock) maybeSyncLocked() {
	effective := c.syncInterval
	if c.backoff > 0 {
		effective = c.backoff
	}
	if time.Since(c.lastSync) < effective {
		return
	}
	c.syncLocked()
}

func (c *NTPClock) syncLocked() {
	// 失败也记录尝试时间，退避从这里起算
	c.lastSync = time.Now()
	offset, err := c.query(c.server)
	if err != nil {
		c.lastError = err
		switch {
		case c.backoff == 0:
			c.backoff = c.backoffInitial
		case c.backoff*2 > c.backoffMax:
			c.backoff = c.backoffMax
		default:
			c.backoff *= 2
		}
		return
	}
	c.offset = offset
	c.lastError = nil
	c.backoff = 0
}

var _ infraClock.Clock = (*NTPClock)(nil)
