// Package testutil 提供进程内的模拟节点与 Bundler
//
// Chain 通过 go-ethereum 的 rpc.Server 注册 eth 与 pm 命名空间，
// 测试使用 rpc.DialInProc 连接，行为足以驱动解析器与合约网关的完整流程。
package testutil

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// 标准部署地址
var (
	DefaultEntryPoint = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	DefaultFactory    = common.HexToAddress("0x9406Cc6185a346906296840746125a0E44976454")
)

const chainABIJSON = `[
 {"type":"function","name":"getNonce","stateMutability":"view",
  "inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],
  "outputs":[{"name":"nonce","type":"uint256"}]},
 {"type":"function","name":"getAddress","stateMutability":"view",
  "inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],
  "outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"execute","stateMutability":"nonpayable",
  "inputs":[{"name":"dest","type":"address"},{"name":"value","type":"uint256"},{"name":"func","type":"bytes"}],
  "outputs":[]}
]`

var chainABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(chainABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// RPCError 带错误码与数据的 JSON-RPC 错误
type RPCError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *RPCError) Error() string          { return e.Message }
func (e *RPCError) ErrorCode() int         { return e.Code }
func (e *RPCError) ErrorData() interface{} { return e.Data }

// CallHandler 处理对某个合约的 eth_call
type CallHandler func(input []byte) ([]byte, error)

// Revert 描述某个内部调用选择器的回滚行为
type Revert struct {
	Data      []byte // 回滚数据
	AtReceipt bool   // true: 模拟通过、上链后失败；false: gas 估算即回滚
}

// Chain 模拟节点与 Bundler
type Chain struct {
	ChainID    uint64
	EntryPoint common.Address
	Factory    common.Address

	mu           sync.Mutex
	code         map[common.Address][]byte
	balances     map[common.Address]*big.Int
	nonces       map[common.Address]uint64
	used         map[common.Address]map[uint64]bool
	calls        map[common.Address]CallHandler
	reverts      map[[4]byte]Revert
	receipts     map[common.Hash]*types.UserOpReceipt
	pending      map[common.Hash]types.UserOperation
	sent         []types.UserOperation
	autoInclude  bool
	failChainID  int
	sendErr      error
	sponsorData  []byte
	blockNumber  uint64
	requestCount atomic.Int64

	server *rpc.Server
}

// NewChain 创建模拟链，默认发送后立即上链
func NewChain(chainID uint64) *Chain {
	c := &Chain{
		ChainID:     chainID,
		EntryPoint:  DefaultEntryPoint,
		Factory:     DefaultFactory,
		code:        make(map[common.Address][]byte),
		balances:    make(map[common.Address]*big.Int),
		nonces:      make(map[common.Address]uint64),
		used:        make(map[common.Address]map[uint64]bool),
		calls:       make(map[common.Address]CallHandler),
		reverts:     make(map[[4]byte]Revert),
		receipts:    make(map[common.Hash]*types.UserOpReceipt),
		pending:     make(map[common.Hash]types.UserOperation),
		autoInclude: true,
		blockNumber: 100,
	}
	c.code[c.EntryPoint] = []byte{0x60}
	c.code[c.Factory] = []byte{0x60}

	c.server = rpc.NewServer()
	if err := c.server.RegisterName("eth", &ethService{c: c}); err != nil {
		panic(err)
	}
	if err := c.server.RegisterName("pm", &pmService{c: c}); err != nil {
		panic(err)
	}
	return c
}

// RPC 返回进程内连接
func (c *Chain) RPC() *rpc.Client {
	return rpc.DialInProc(c.server)
}

// Stop 停止服务
func (c *Chain) Stop() {
	c.server.Stop()
}

// Requests 收到的 RPC 请求总数
func (c *Chain) Requests() int64 {
	return c.requestCount.Load()
}

// CounterfactualAddress 模拟工厂的地址派生规则
func (c *Chain) CounterfactualAddress(owner common.Address, salt *big.Int) common.Address {
	return crypto.CreateAddress2(c.Factory, common.BigToHash(salt), crypto.Keccak256(owner.Bytes()))
}

// SetAutoInclude 设置发送后是否立即上链
func (c *Chain) SetAutoInclude(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoInclude = v
}

// FailChainID 接下来 n 次 eth_chainId 返回瞬时错误
func (c *Chain) FailChainID(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failChainID = n
}

// FailSend 设置 eth_sendUserOperation 的错误，nil 表示恢复
func (c *Chain) FailSend(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// SetSponsorData 设置 pm_sponsorUserOperation 返回的 paymasterAndData
func (c *Chain) SetSponsorData(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sponsorData = common.CopyBytes(data)
}

// SetCode 设置合约代码
func (c *Chain) SetCode(addr common.Address, code []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code[addr] = common.CopyBytes(code)
}

// SetBalance 设置余额
func (c *Chain) SetBalance(addr common.Address, balance *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[addr] = new(big.Int).Set(balance)
}

// HandleCall 注册合约的只读调用处理函数
func (c *Chain) HandleCall(addr common.Address, h CallHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[addr] = h
}

// RevertSelector 钱包内部调用该选择器时回滚
func (c *Chain) RevertSelector(selector []byte, r Revert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var key [4]byte
	copy(key[:], selector)
	c.reverts[key] = r
}

// Sent 已接受的用户操作
func (c *Chain) Sent() []types.UserOperation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.UserOperation, len(c.sent))
	for i, op := range c.sent {
		out[i] = *op.Copy()
	}
	return out
}

// Include 使一个待上链的用户操作上链
func (c *Chain) Include(hash common.Hash) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.pending[hash]
	if !ok {
		return fmt.Errorf("user operation %s is not pending", hash.Hex())
	}
	delete(c.pending, hash)
	c.mineLocked(hash, op)
	return nil
}

// mineLocked 执行并记录回执
func (c *Chain) mineLocked(hash common.Hash, op types.UserOperation) {
	c.blockNumber++
	if len(op.InitCode) > 0 {
		c.code[op.Sender] = []byte{0x60, 0x80}
	}
	if op.Nonce.Uint64() >= c.nonces[op.Sender] {
		c.nonces[op.Sender] = op.Nonce.Uint64() + 1
	}

	receipt := &types.UserOpReceipt{
		UserOpHash:    hash,
		EntryPoint:    c.EntryPoint,
		Sender:        op.Sender,
		Nonce:         new(big.Int).Set(op.Nonce),
		Paymaster:     op.PaymasterAddress(),
		ActualGasCost: big.NewInt(21000 * 1_000_000_000),
		ActualGasUsed: big.NewInt(21000),
		Success:       true,
		TxHash:        crypto.Keccak256Hash(hash.Bytes(), []byte("tx")),
		BlockNumber:   c.blockNumber,
	}
	if r, ok := c.revertFor(op.CallData); ok && r.AtReceipt {
		receipt.Success = false
		receipt.Reason = hexutil.Encode(r.Data)
	}
	c.receipts[hash] = receipt
}

// revertFor 解析 execute(dest, value, func) 并查找回滚配置
func (c *Chain) revertFor(callData []byte) (Revert, bool) {
	if len(callData) < 4 || !bytes.Equal(callData[:4], chainABI.Methods["execute"].ID) {
		return Revert{}, false
	}
	values, err := chainABI.Methods["execute"].Inputs.Unpack(callData[4:])
	if err != nil || len(values) != 3 {
		return Revert{}, false
	}
	inner, _ := values[2].([]byte)
	if len(inner) < 4 {
		return Revert{}, false
	}
	var key [4]byte
	copy(key[:], inner[:4])
	r, ok := c.reverts[key]
	return r, ok
}

// ethService eth 命名空间
type ethService struct{ c *Chain }

// callArgs eth_call 参数，兼容 input 与 data 字段
type callArgs struct {
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data"`
	Input hexutil.Bytes   `json:"input"`
}

func (s *ethService) ChainId() (*hexutil.Big, error) {
	c := s.c
	c.requestCount.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failChainID > 0 {
		c.failChainID--
		return nil, &RPCError{Code: -32603, Message: "temporarily unavailable"}
	}
	return (*hexutil.Big)(new(big.Int).SetUint64(c.ChainID)), nil
}

func (s *ethService) GetCode(addr common.Address, block string) (hexutil.Bytes, error) {
	c := s.c
	c.requestCount.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.CopyBytes(c.code[addr]), nil
}

func (s *ethService) GetBalance(addr common.Address, block string) (*hexutil.Big, error) {
	c := s.c
	c.requestCount.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.balances[addr]; ok {
		return (*hexutil.Big)(new(big.Int).Set(b)), nil
	}
	return (*hexutil.Big)(new(big.Int)), nil
}

func (s *ethService) GasPrice() (*hexutil.Big, error) {
	s.c.requestCount.Add(1)
	return (*hexutil.Big)(big.NewInt(1_000_000_000)), nil
}

func (s *ethService) MaxPriorityFeePerGas() (*hexutil.Big, error) {
	s.c.requestCount.Add(1)
	return (*hexutil.Big)(big.NewInt(100_000_000)), nil
}

func (s *ethService) Call(args callArgs, block string) (hexutil.Bytes, error) {
	c := s.c
	c.requestCount.Add(1)
	input := args.Input
	if len(input) == 0 {
		input = args.Data
	}
	if args.To == nil || len(input) < 4 {
		return nil, &RPCError{Code: -32602, Message: "invalid call"}
	}

	c.mu.Lock()
	handler := c.calls[*args.To]
	c.mu.Unlock()
	if handler != nil {
		return handler(input)
	}

	switch {
	case *args.To == c.EntryPoint && bytes.Equal(input[:4], chainABI.Methods["getNonce"].ID):
		values, err := chainABI.Methods["getNonce"].Inputs.Unpack(input[4:])
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		nonce := c.nonces[values[0].(common.Address)]
		c.mu.Unlock()
		return chainABI.Methods["getNonce"].Outputs.Pack(new(big.Int).SetUint64(nonce))
	case *args.To == c.Factory && bytes.Equal(input[:4], chainABI.Methods["getAddress"].ID):
		values, err := chainABI.Methods["getAddress"].Inputs.Unpack(input[4:])
		if err != nil {
			return nil, err
		}
		addr := c.CounterfactualAddress(values[0].(common.Address), values[1].(*big.Int))
		return chainABI.Methods["getAddress"].Outputs.Pack(addr)
	}
	return nil, &RPCError{Code: 3, Message: "execution reverted", Data: "0x"}
}

func (s *ethService) EstimateUserOperationGas(op types.UserOperation, entryPoint common.Address) (map[string]hexutil.Uint64, error) {
	c := s.c
	c.requestCount.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if entryPoint != c.EntryPoint {
		return nil, &RPCError{Code: -32602, Message: "unsupported entry point"}
	}
	if r, ok := c.revertFor(op.CallData); ok && !r.AtReceipt {
		return nil, &RPCError{Code: -32521, Message: "execution reverted", Data: hexutil.Encode(r.Data)}
	}
	verification := uint64(70_000)
	if len(op.InitCode) > 0 {
		verification += 250_000
	}
	return map[string]hexutil.Uint64{
		"preVerificationGas":   45_000,
		"verificationGasLimit": hexutil.Uint64(verification),
		"callGasLimit":         90_000,
	}, nil
}

func (s *ethService) SendUserOperation(op types.UserOperation, entryPoint common.Address) (common.Hash, error) {
	c := s.c
	c.requestCount.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return common.Hash{}, c.sendErr
	}
	if entryPoint != c.EntryPoint {
		return common.Hash{}, &RPCError{Code: -32602, Message: "unsupported entry point"}
	}
	if len(op.Signature) != 65 {
		return common.Hash{}, &RPCError{Code: -32507, Message: "invalid signature length"}
	}
	nonce := op.Nonce.Uint64()
	if nonce < c.nonces[op.Sender] || c.used[op.Sender][nonce] {
		return common.Hash{}, &RPCError{Code: -32602, Message: fmt.Sprintf("invalid nonce %d", nonce)}
	}
	if len(c.code[op.Sender]) == 0 && len(op.InitCode) == 0 && !c.hasPendingInitLocked(op.Sender) {
		return common.Hash{}, &RPCError{Code: -32500, Message: "AA20 account not deployed"}
	}
	if c.used[op.Sender] == nil {
		c.used[op.Sender] = make(map[uint64]bool)
	}
	c.used[op.Sender][nonce] = true

	hash, err := op.Hash(c.EntryPoint, new(big.Int).SetUint64(c.ChainID))
	if err != nil {
		return common.Hash{}, err
	}
	c.sent = append(c.sent, *op.Copy())
	if c.autoInclude {
		c.mineLocked(hash, op)
	} else {
		c.pending[hash] = op
	}
	return hash, nil
}

func (c *Chain) hasPendingInitLocked(sender common.Address) bool {
	for _, op := range c.pending {
		if op.Sender == sender && len(op.InitCode) > 0 {
			return true
		}
	}
	return false
}

func (s *ethService) GetUserOperationReceipt(hash common.Hash) (*types.UserOpReceipt, error) {
	c := s.c
	c.requestCount.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipts[hash], nil
}

// pmService pm 命名空间
type pmService struct{ c *Chain }

type sponsorContext struct {
	SponsorshipPolicyID string `json:"sponsorshipPolicyId"`
}

func (s *pmService) SponsorUserOperation(op types.UserOperation, entryPoint common.Address, _ *sponsorContext) (*types.SponsorResult, error) {
	c := s.c
	c.requestCount.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sponsorData) == 0 {
		return nil, &RPCError{Code: -32500, Message: "sponsorship denied"}
	}
	return &types.SponsorResult{PaymasterAndData: common.CopyBytes(c.sponsorData)}, nil
}
