package clock

import (
	"sync"
	"time"

	infraClock "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
)

// MockClock 测试用时钟，时间可控
//
// After 返回的通道在 Advance 越过到期时间时触发。
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	waiters     []mockWaiter
}

type mockWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

func NewMockClock(initial time.Time) *MockClock { return &MockClock{currentTime: initial} }

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

func (c *MockClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }

func (c *MockClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	deadline := c.currentTime.Add(d)
	if d <= 0 {
		ch <- c.currentTime
		return ch
	}
	c.waiters = append(c.waiters, mockWaiter{deadline: deadline, ch: ch})
	return ch
}

// Advance 推进时间并触发到期的等待者
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.currentTime) {
			w.ch <- c.currentTime
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
}

// Waiters 尚未触发的 After 数量
func (c *MockClock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Ensure接口实现满足 infraClock.Clock
var (
	_ infraClock.Clock = (*SystemClock)(nil)
	_ infraClock.Clock = (*MockClock)(nil)
)
