package gateway

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// walletSlots 每个钱包一个提交槽位
//
// 从分配 nonce 到提交完成期间持有，同一钱包的操作因此串行获得连续的 nonce；
// 不同钱包互不影响。等待上链不占用槽位。
type walletSlots struct {
	mu    sync.Mutex
	slots map[common.Address]chan struct{}
}

func newWalletSlots() *walletSlots {
	return &walletSlots{slots: make(map[common.Address]chan struct{})}
}

// acquire 获取槽位，返回幂等的释放函数
func (w *walletSlots) acquire(ctx context.Context, wallet common.Address) (func(), error) {
	w.mu.Lock()
	slot, ok := w.slots[wallet]
	if !ok {
		slot = make(chan struct{}, 1)
		w.slots[wallet] = slot
	}
	w.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
