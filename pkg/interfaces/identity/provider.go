// Package identity 定义身份提供者适配器接口
//
// 核心只依赖 Connect / Disconnect / RestoreSession 三个操作，
// 不关心握手方式（OAuth、邮箱密码、浏览器钱包扩展等）。
package identity

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// ProviderHandle 已认证的提供者句柄（不透明）
//
// 句柄可以额外实现 KeyMaterialHandle 或 SigningHandle 以提供链上签名能力，
// 由签名桥接层通过类型断言识别。
type ProviderHandle interface {
	// Connected 句柄是否仍然有效
	Connected() bool
}

// KeyMaterialHandle 能直接提供 secp256k1 私钥的句柄
type KeyMaterialHandle interface {
	ProviderHandle

	// PrivateKey 返回 32 字节私钥
	PrivateKey() ([]byte, error)
}

// SigningHandle 只提供远程签名能力的句柄
type SigningHandle interface {
	ProviderHandle

	// Account 返回签名账户地址
	Account(ctx context.Context) (common.Address, error)

	// SignHash 对 32 字节摘要签名，返回 65 字节 [R || S || V]，V ∈ {0, 1}
	SignHash(ctx context.Context, hash []byte) ([]byte, error)
}

// Provider 身份提供者适配器
type Provider interface {
	// Connect 执行交互式登录握手
	// 用户取消时返回包装了 types.ErrUserCancelled 的错误
	Connect(ctx context.Context) (ProviderHandle, error)

	// Disconnect 断开当前提供者会话
	Disconnect(ctx context.Context) error

	// RestoreSession 静默恢复已有会话；没有可恢复的会话时返回 (nil, nil)
	RestoreSession(ctx context.Context) (ProviderHandle, error)
}
