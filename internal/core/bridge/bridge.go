// Package bridge 把身份提供者返回的不透明句柄适配为链上签名器
//
// 句柄能力通过类型断言识别：
//   - identity.KeyMaterialHandle: 提供私钥，生成本地签名器
//   - identity.SigningHandle: 只提供远程签名，生成委托签名器
//
// 适配是同步的，失败立即以 BridgeError 返回，不重试。
package bridge

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

var errDisconnected = errors.New("provider handle is disconnected")

// Bridge 签名桥接实现
type Bridge struct {
	logger log.Logger
}

// New 创建签名桥接
func New(logger log.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// ToSigner 实现 wallet.Bridge
func (b *Bridge) ToSigner(ctx context.Context, handle identity.ProviderHandle) (wallet.Signer, error) {
	if handle == nil || !handle.Connected() {
		return nil, types.NewBridgeError(types.CodeDisconnected, "provider handle is not connected", errDisconnected)
	}

	switch h := handle.(type) {
	case identity.KeyMaterialHandle:
		raw, err := h.PrivateKey()
		if err != nil {
			return nil, types.NewBridgeError(types.CodeMissingCapability, "provider did not release key material", err)
		}
		key, err := crypto.ToECDSA(raw)
		if err != nil {
			return nil, types.NewBridgeError(types.CodeInvalidKey, "key material is not a valid secp256k1 key", err)
		}
		signer := NewLocalSigner(key, handle)
		b.debugf("本地签名器已就绪: %s", signer.Address().Hex())
		return signer, nil

	case identity.SigningHandle:
		addr, err := h.Account(ctx)
		if err != nil {
			return nil, types.NewBridgeError(types.CodeMissingCapability, "provider did not report a signing account", err)
		}
		b.debugf("委托签名器已就绪: %s", addr.Hex())
		return &remoteSigner{handle: h, address: addr}, nil

	default:
		return nil, types.NewBridgeError(types.CodeMissingCapability, "provider handle cannot sign for a chain account", nil)
	}
}

func (b *Bridge) debugf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Debugf(format, args...)
	}
}

// checkHandle 签名前确认句柄仍有效
func checkHandle(handle identity.ProviderHandle) error {
	if handle != nil && !handle.Connected() {
		return types.NewBridgeError(types.CodeDisconnected, "provider handle was disconnected", errDisconnected)
	}
	return nil
}

var _ wallet.Bridge = (*Bridge)(nil)
