// Package session 定义会话管理接口
package session

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// Snapshot 会话只读快照
type Snapshot struct {
	Status        types.SessionStatus
	Signer        wallet.Signer      // provider_connected 起非空
	WalletAddress *common.Address    // 仅 ready 时非空
	Account       *aa.Account        // 仅 ready 时非空
	LastError     *types.WalletError // 仅 error 时非空
	Version       uint64             // 每次迁移递增
}

// Ready 会话是否可执行合约操作
func (s Snapshot) Ready() bool {
	return s.Status == types.SessionReady && s.Account != nil
}

// Listener 快照订阅者
type Listener func(Snapshot)

// Reader 只读访问
type Reader interface {
	// GetSession 返回当前会话快照
	GetSession() Snapshot
}

// Manager 会话管理器
type Manager interface {
	Reader

	// Init 启动探测：尝试静默恢复已有的提供者会话
	Init(ctx context.Context) (Snapshot, error)

	// Login 交互式登录；已有流程进行中时返回 ConcurrentLoginError
	Login(ctx context.Context) (Snapshot, error)

	// Logout 清空会话，永不失败
	Logout(ctx context.Context) Snapshot

	// Subscribe 订阅每次状态迁移，返回取消订阅函数
	Subscribe(listener Listener) (unsubscribe func())
}
