package aa

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// ClientOptions JSON-RPC 客户端参数
type ClientOptions struct {
	EntryPoint     common.Address
	RequestTimeout time.Duration // 单次请求超时，0 表示只受调用方 ctx 约束
	FeeMultiplier  uint64        // maxFeePerGas = gasPrice * pct / 100
}

// RPCClient 基于 go-ethereum rpc/ethclient 的账户抽象客户端
//
// 节点请求与 Bundler 请求可以走不同的端点；二者相同时共用一个连接。
type RPCClient struct {
	node    *rpc.Client
	bundler *rpc.Client
	eth     *ethclient.Client
	opts    ClientOptions
}

// NewClient 使用已建立的连接创建客户端，bundler 为 nil 时复用 node
func NewClient(node, bundler *rpc.Client, opts ClientOptions) *RPCClient {
	if bundler == nil {
		bundler = node
	}
	if opts.FeeMultiplier < 100 {
		opts.FeeMultiplier = 100
	}
	return &RPCClient{
		node:    node,
		bundler: bundler,
		eth:     ethclient.NewClient(node),
		opts:    opts,
	}
}

// Dial 连接节点与 Bundler 端点
func Dial(ctx context.Context, rpcURL, bundlerURL string, opts ClientOptions) (*RPCClient, error) {
	node, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}
	var bundler *rpc.Client
	if bundlerURL != "" && bundlerURL != rpcURL {
		bundler, err = rpc.DialContext(ctx, bundlerURL)
		if err != nil {
			node.Close()
			return nil, fmt.Errorf("dial bundler %s: %w", bundlerURL, err)
		}
	}
	return NewClient(node, bundler, opts), nil
}

func (c *RPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.RequestTimeout)
}

// ChainID 实现 aa.Client
func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	id, err := c.eth.ChainID(ctx)
	return id, ClassifyError("eth_chainId", err)
}

// EntryPoint 实现 aa.Client
func (c *RPCClient) EntryPoint() common.Address {
	return c.opts.EntryPoint
}

// CodeAt 实现 aa.Client
func (c *RPCClient) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	code, err := c.eth.CodeAt(ctx, account, nil)
	return code, ClassifyError("eth_getCode", err)
}

// BalanceAt 实现 aa.Client
func (c *RPCClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	balance, err := c.eth.BalanceAt(ctx, account, nil)
	return balance, ClassifyError("eth_getBalance", err)
}

// Call 实现 aa.Client
func (c *RPCClient) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	return out, ClassifyError("eth_call", err)
}

// GetNonce 实现 aa.Client
func (c *RPCClient) GetNonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error) {
	if key == nil {
		key = new(big.Int)
	}
	input, err := entryPointABI.Pack("getNonce", sender, key)
	if err != nil {
		return nil, fmt.Errorf("pack getNonce: %w", err)
	}
	out, err := c.Call(ctx, c.opts.EntryPoint, input)
	if err != nil {
		return nil, err
	}
	values, err := entryPointABI.Unpack("getNonce", out)
	if err != nil || len(values) != 1 {
		return nil, types.NewNetworkError(types.CodeRPC, "getNonce", fmt.Errorf("unexpected getNonce result %x: %v", out, err))
	}
	nonce, ok := values[0].(*big.Int)
	if !ok {
		return nil, types.NewNetworkError(types.CodeRPC, "getNonce", fmt.Errorf("unexpected getNonce type %T", values[0]))
	}
	return nonce, nil
}

// SuggestFees 实现 aa.Client
//
// 节点不支持 eth_maxPriorityFeePerGas 时小费取 gasPrice。
func (c *RPCClient) SuggestFees(ctx context.Context) (*big.Int, *big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, ClassifyError("eth_gasPrice", err)
	}
	maxFee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(c.opts.FeeMultiplier))
	maxFee.Div(maxFee, big.NewInt(100))

	tip, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		tip = new(big.Int).Set(gasPrice)
	}
	if tip.Cmp(maxFee) > 0 {
		tip = new(big.Int).Set(maxFee)
	}
	return maxFee, tip, nil
}

// EstimateUserOperationGas 实现 aa.Client
func (c *RPCClient) EstimateUserOperationGas(ctx context.Context, op *types.UserOperation) (*types.GasEstimate, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var est types.GasEstimate
	if err := c.bundler.CallContext(ctx, &est, "eth_estimateUserOperationGas", op, c.opts.EntryPoint); err != nil {
		return nil, ClassifyError("eth_estimateUserOperationGas", err)
	}
	return &est, nil
}

// SponsorUserOperation 实现 aa.Client
func (c *RPCClient) SponsorUserOperation(ctx context.Context, op *types.UserOperation, policyID string) (*types.SponsorResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	args := []interface{}{op, c.opts.EntryPoint}
	if policyID != "" {
		args = append(args, map[string]string{"sponsorshipPolicyId": policyID})
	}
	var res types.SponsorResult
	if err := c.bundler.CallContext(ctx, &res, "pm_sponsorUserOperation", args...); err != nil {
		return nil, ClassifyError("pm_sponsorUserOperation", err)
	}
	return &res, nil
}

// SendUserOperation 实现 aa.Client
func (c *RPCClient) SendUserOperation(ctx context.Context, op *types.UserOperation) (common.Hash, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var hash common.Hash
	if err := c.bundler.CallContext(ctx, &hash, "eth_sendUserOperation", op, c.opts.EntryPoint); err != nil {
		return common.Hash{}, ClassifyError("eth_sendUserOperation", err)
	}
	return hash, nil
}

// GetUserOperationReceipt 实现 aa.Client
func (c *RPCClient) GetUserOperationReceipt(ctx context.Context, userOpHash common.Hash) (*types.UserOpReceipt, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var raw json.RawMessage
	if err := c.bundler.CallContext(ctx, &raw, "eth_getUserOperationReceipt", userOpHash); err != nil {
		return nil, ClassifyError("eth_getUserOperationReceipt", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var receipt types.UserOpReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, types.NewNetworkError(types.CodeRPC, "eth_getUserOperationReceipt", fmt.Errorf("decode receipt: %w", err))
	}
	return &receipt, nil
}

// Close 实现 aa.Client
func (c *RPCClient) Close() {
	if c.bundler != c.node {
		c.bundler.Close()
	}
	c.node.Close()
}

var _ aaIface.Client = (*RPCClient)(nil)
