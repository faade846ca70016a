// Package aa 定义账户抽象（ERC-4337）相关接口
package aa

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// Client 链与 Bundler 的 JSON-RPC 客户端
type Client interface {
	// ChainID 节点报告的链 ID
	ChainID(ctx context.Context) (*big.Int, error)

	// EntryPoint 绑定的 EntryPoint 合约地址
	EntryPoint() common.Address

	// CodeAt 读取合约代码（未部署时为空）
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)

	// BalanceAt 读取原生代币余额
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)

	// Call 只读调用（eth_call，latest）
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// GetNonce EntryPoint.getNonce(sender, key)
	GetNonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error)

	// SuggestFees 建议的 maxFeePerGas 与 maxPriorityFeePerGas
	SuggestFees(ctx context.Context) (maxFee *big.Int, maxPriorityFee *big.Int, err error)

	// EstimateUserOperationGas eth_estimateUserOperationGas
	EstimateUserOperationGas(ctx context.Context, op *types.UserOperation) (*types.GasEstimate, error)

	// SponsorUserOperation pm_sponsorUserOperation
	SponsorUserOperation(ctx context.Context, op *types.UserOperation, policyID string) (*types.SponsorResult, error)

	// SendUserOperation eth_sendUserOperation，返回 userOpHash
	SendUserOperation(ctx context.Context, op *types.UserOperation) (common.Hash, error)

	// GetUserOperationReceipt 尚未上链时返回 (nil, nil)
	GetUserOperationReceipt(ctx context.Context, userOpHash common.Hash) (*types.UserOpReceipt, error)

	// Close 关闭底层连接
	Close()
}

// Call 钱包要执行的一次调用
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Builder 组装并签名用户操作
type Builder interface {
	// Sender 智能合约钱包地址
	Sender() common.Address

	// Owner 钱包所有者（签名器）地址
	Owner() common.Address

	// InitCode 工厂地址 ‖ createAccount(owner, salt)
	InitCode() []byte

	// EncodeExecute 编码钱包的 execute(dest, value, func) 调用
	EncodeExecute(call Call) ([]byte, error)

	// Build 组装未签名的用户操作：nonce 为 0 且钱包未部署时附带 InitCode，
	// 填充费用、gas 估算与 paymasterAndData
	Build(ctx context.Context, call Call, nonce *big.Int) (*types.UserOperation, error)

	// Sign 计算 userOpHash 并由所有者签名
	Sign(ctx context.Context, op *types.UserOperation) (common.Hash, error)
}

// Account 解析结果：派生出的钱包以及提交用户操作所需的客户端与构建器
type Account struct {
	Owner    common.Address
	Address  common.Address
	Deployed bool // 解析时钱包合约是否已部署
	Client   Client
	Builder  Builder
}

// Resolver 账户抽象解析器
type Resolver interface {
	// Resolve 根据签名器派生确定性的钱包地址并准备客户端与构建器
	// 失败返回 WalletDerivationError；同一签名器多次调用返回相同地址
	Resolve(ctx context.Context, signer wallet.Signer) (*Account, error)
}
