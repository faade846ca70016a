package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockClock_AdvanceFiresWaiters(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	short := c.After(time.Second)
	long := c.After(time.Minute)
	assert.Equal(t, 2, c.Waiters())

	c.Advance(2 * time.Second)
	select {
	case now := <-short:
		assert.Equal(t, start.Add(2*time.Second), now)
	default:
		t.Fatal("到期的等待者未触发")
	}
	select {
	case <-long:
		t.Fatal("未到期的等待者被触发")
	default:
	}
	assert.Equal(t, 1, c.Waiters())
	assert.Equal(t, 2*time.Second, c.Since(start))
}

func TestMockClock_NonPositiveFiresImmediately(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	select {
	case <-c.After(0):
	default:
		t.Fatal("零时长应立即触发")
	}
}

func TestOrSystem(t *testing.T) {
	assert.IsType(t, &SystemClock{}, OrSystem(nil))
	mock := NewMockClock(time.Now())
	assert.Same(t, mock, OrSystem(mock))
}
