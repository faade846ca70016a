package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletSlots(t *testing.T) {
	slots := newWalletSlots()
	a := common.HexToAddress("0x01")
	b := common.HexToAddress("0x02")

	releaseA, err := slots.acquire(context.Background(), a)
	require.NoError(t, err)

	// 其他钱包不受影响
	releaseB, err := slots.acquire(context.Background(), b)
	require.NoError(t, err)
	releaseB()

	// 同一钱包需要等待
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = slots.acquire(ctx, a)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		release, err := slots.acquire(context.Background(), a)
		if err == nil {
			release()
		}
		close(acquired)
	}()

	releaseA()
	releaseA() // 幂等
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
}

func TestNextInterval(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, nextInterval(time.Second, 1.5, 5*time.Second))
	assert.Equal(t, 5*time.Second, nextInterval(4*time.Second, 1.5, 5*time.Second))
}
