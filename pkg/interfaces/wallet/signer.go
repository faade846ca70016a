// Package wallet 定义链上签名器接口
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
)

// Signer 链上签名器
//
// 实现必须是并发安全的。
type Signer interface {
	// Address 签名账户地址
	Address() common.Address

	// SignMessage EIP-191 personal_sign，返回 65 字节签名，V ∈ {27, 28}
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)

	// SignTransaction 使用链 ID 对应的最新签名规则签名交易
	SignTransaction(ctx context.Context, tx *gethtypes.Transaction, chainID *big.Int) (*gethtypes.Transaction, error)
}

// Bridge 把身份提供者句柄适配为签名器
type Bridge interface {
	// ToSigner 句柄已断开或缺少签名能力时返回 BridgeError，不重试
	ToSigner(ctx context.Context, handle identity.ProviderHandle) (Signer, error)
}
