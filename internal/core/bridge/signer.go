package bridge

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
)

// localSigner 持有 secp256k1 私钥的本地签名器
type localSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	handle  identity.ProviderHandle
}

// NewLocalSigner 由私钥创建签名器，handle 为 nil 时不检查连接状态
func NewLocalSigner(key *ecdsa.PrivateKey, handle identity.ProviderHandle) wallet.Signer {
	return &localSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		handle:  handle,
	}
}

func (s *localSigner) Address() common.Address {
	return s.address
}

func (s *localSigner) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	if err := checkHandle(s.handle); err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(accounts.TextHash(msg), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (s *localSigner) SignTransaction(ctx context.Context, tx *gethtypes.Transaction, chainID *big.Int) (*gethtypes.Transaction, error) {
	if err := checkHandle(s.handle); err != nil {
		return nil, err
	}
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// remoteSigner 委托身份提供者签名的签名器
type remoteSigner struct {
	handle  identity.SigningHandle
	address common.Address
}

func (s *remoteSigner) Address() common.Address {
	return s.address
}

func (s *remoteSigner) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	sig, err := s.signHash(ctx, accounts.TextHash(msg))
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (s *remoteSigner) SignTransaction(ctx context.Context, tx *gethtypes.Transaction, chainID *big.Int) (*gethtypes.Transaction, error) {
	signer := gethtypes.LatestSignerForChainID(chainID)
	sig, err := s.signHash(ctx, signer.Hash(tx).Bytes())
	if err != nil {
		return nil, err
	}
	signed, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, fmt.Errorf("attach signature: %w", err)
	}
	return signed, nil
}

// signHash 调用提供者签名并校验返回的签名属于本账户
func (s *remoteSigner) signHash(ctx context.Context, hash []byte) ([]byte, error) {
	if err := checkHandle(s.handle); err != nil {
		return nil, err
	}
	sig, err := s.handle.SignHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("provider sign: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("provider returned %d-byte signature", len(sig))
	}
	sig = common.CopyBytes(sig)
	// 部分提供者返回 V ∈ {27, 28}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return nil, fmt.Errorf("recover signer: %w", err)
	}
	if got := crypto.PubkeyToAddress(*pub); got != s.address {
		return nil, fmt.Errorf("provider signed with %s, expected %s", got.Hex(), s.address.Hex())
	}
	return sig, nil
}
