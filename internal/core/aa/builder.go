package aa

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	accountconfig "github.com/cosmasken/arcadehub-sub003/internal/config/account"
	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// dummySignature 用于 gas 估算的占位签名，能通过 SimpleAccount 的 ecrecover 而不回滚
var dummySignature = hexutil.MustDecode("0xfffffffffffffffffffffffffffffff0000000000000000000000000000000007aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1c")

// paymasterSettings 已校验的 paymaster 参数
type paymasterSettings struct {
	mode     string
	static   []byte
	policyID string
}

// builder 组装并签名某个钱包的用户操作
type builder struct {
	client    aaIface.Client
	signer    wallet.Signer
	sender    common.Address
	chainID   *big.Int
	initCode  []byte
	paymaster paymasterSettings
}

func (b *builder) Sender() common.Address { return b.sender }

func (b *builder) Owner() common.Address { return b.signer.Address() }

func (b *builder) InitCode() []byte { return common.CopyBytes(b.initCode) }

func (b *builder) EncodeExecute(call aaIface.Call) ([]byte, error) {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	data := call.Data
	if data == nil {
		data = []byte{}
	}
	out, err := accountABI.Pack("execute", call.To, value, data)
	if err != nil {
		return nil, fmt.Errorf("pack execute: %w", err)
	}
	return out, nil
}

// Build 实现 aa.Builder
func (b *builder) Build(ctx context.Context, call aaIface.Call, nonce *big.Int) (*types.UserOperation, error) {
	callData, err := b.EncodeExecute(call)
	if err != nil {
		return nil, types.NewInvalidParamsError("build", "cannot encode wallet call", err)
	}

	op := &types.UserOperation{
		Sender:    b.sender,
		Nonce:     new(big.Int).Set(nonce),
		CallData:  callData,
		Signature: common.CopyBytes(dummySignature),
	}

	// 首个操作且钱包尚未部署时携带 initCode，部署与调用在同一操作中完成
	if nonce.Sign() == 0 {
		code, err := b.client.CodeAt(ctx, b.sender)
		if err != nil {
			return nil, err
		}
		if len(code) == 0 {
			op.InitCode = common.CopyBytes(b.initCode)
		}
	}

	op.MaxFeePerGas, op.MaxPriorityFeePerGas, err = b.client.SuggestFees(ctx)
	if err != nil {
		return nil, err
	}

	switch b.paymaster.mode {
	case accountconfig.PaymasterSponsor:
		res, err := b.client.SponsorUserOperation(ctx, op, b.paymaster.policyID)
		if err != nil {
			return nil, err
		}
		op.PaymasterAndData = res.PaymasterAndData
		if res.CallGasLimit != nil && res.VerificationGasLimit != nil && res.PreVerificationGas != nil {
			op.CallGasLimit = uint64(*res.CallGasLimit)
			op.VerificationGasLimit = uint64(*res.VerificationGasLimit)
			op.PreVerificationGas = uint64(*res.PreVerificationGas)
			return op, nil
		}
	case accountconfig.PaymasterStatic:
		op.PaymasterAndData = common.CopyBytes(b.paymaster.static)
	}

	est, err := b.client.EstimateUserOperationGas(ctx, op)
	if err != nil {
		return nil, err
	}
	op.CallGasLimit = uint64(est.CallGasLimit)
	op.VerificationGasLimit = uint64(est.VerificationGasLimit)
	op.PreVerificationGas = uint64(est.PreVerificationGas)
	return op, nil
}

// Sign 实现 aa.Builder：所有者对 userOpHash 做 personal_sign
func (b *builder) Sign(ctx context.Context, op *types.UserOperation) (common.Hash, error) {
	hash, err := op.Hash(b.client.EntryPoint(), b.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	sig, err := b.signer.SignMessage(ctx, hash.Bytes())
	if err != nil {
		return common.Hash{}, err
	}
	op.Signature = sig
	return hash, nil
}

var _ aaIface.Builder = (*builder)(nil)
