// Package gateway 定义合约网关接口
package gateway

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// Gateway 合约网关
type Gateway interface {
	// Execute 执行一次高层合约操作并等待上链
	// 会话未就绪时立即返回 SessionNotReadyError，不发起任何网络请求
	Execute(ctx context.Context, kind types.OperationKind, params types.OperationParams) (*types.Receipt, error)
}

// NonceStore 记录每个钱包下一个可用 nonce
//
// 只在提交成功后写入；提交失败时重置，下次以链上值为准。
type NonceStore interface {
	// Next 读取已提交的下一个 nonce，不存在时 ok 为 false
	Next(ctx context.Context, wallet common.Address) (next *big.Int, ok bool, err error)

	// Commit 记录下一个 nonce
	Commit(ctx context.Context, wallet common.Address, next *big.Int) error

	// Reset 删除记录
	Reset(ctx context.Context, wallet common.Address) error

	// Close 释放资源
	Close() error
}
