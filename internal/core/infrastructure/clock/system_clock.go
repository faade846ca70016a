// Package clock 提供时间源实现
package clock

import (
	"time"

	infraClock "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
)

// SystemClock 使用系统真实时间
type SystemClock struct{}

func NewSystemClock() infraClock.Clock { return &SystemClock{} }

func (c *SystemClock) Now() time.Time                         { return time.Now() }
func (c *SystemClock) Since(t time.Time) time.Duration        { return time.Since(t) }
func (c *SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// OrSystem 为 nil 时返回系统时钟
func OrSystem(c infraClock.Clock) infraClock.Clock {
	if c == nil {
		return NewSystemClock()
	}
	return c
}
