// Package gateway 合约网关
//
// 将高层游戏操作（领取奖励、铸造 NFT、代币授权）编码为钱包的 execute 调用，
// 通过当前会话的智能合约钱包组装、签名并提交用户操作，随后等待上链。
//
// 操作生命周期：
//
//	building → submitted → included
//	    ↓          ↓
//	  failed     failed
//
// 提交之前的瞬时网络错误会按配置重试；提交本身不重试，避免重复执行。
package gateway

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	gatewayconfig "github.com/cosmasken/arcadehub-sub003/internal/config/gateway"
	"github.com/cosmasken/arcadehub-sub003/internal/core/aa"
	clockimpl "github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/clock"
	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	gatewayIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/gateway"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	registryIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/registry"
	sessionIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/session"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// Options 合约网关依赖
type Options struct {
	Session    sessionIface.Reader
	Registry   registryIface.Registry
	NonceStore gatewayIface.NonceStore // 可为 nil，此时只使用链上 nonce
	Hook       metrics.Hook            // 可为 nil
	Clock      clock.Clock             // 可为 nil
	Logger     log.Logger              // 可为 nil
	Config     *gatewayconfig.Config   // 可为 nil，使用默认值
}

// Service 合约网关实现
type Service struct {
	session  sessionIface.Reader
	registry registryIface.Registry
	nonces   gatewayIface.NonceStore
	hook     metrics.Hook
	clock    clock.Clock
	logger   log.Logger
	options  *gatewayconfig.GatewayOptions

	slots    *walletSlots
	decimals sync.Map // common.Address → uint8
}

// NewService 创建合约网关
func NewService(opts Options) *Service {
	cfg := opts.Config
	if cfg == nil {
		cfg = gatewayconfig.New(nil)
	}
	hook := opts.Hook
	if hook == nil {
		hook = metrics.NopHook{}
	}
	return &Service{
		session:  opts.Session,
		registry: opts.Registry,
		nonces:   opts.NonceStore,
		hook:     hook,
		clock:    clockimpl.OrSystem(opts.Clock),
		logger:   opts.Logger,
		options:  cfg.GetOptions(),
		slots:    newWalletSlots(),
	}
}

// pendingOperation 一次进行中的操作
type pendingOperation struct {
	id         string
	kind       types.OperationKind
	account    *aaIface.Account
	nonce      *big.Int
	userOpHash common.Hash
	startedAt  time.Time
	sentAt     time.Time
}

// Execute 实现 gateway.Gateway
func (s *Service) Execute(ctx context.Context, kind types.OperationKind, params types.OperationParams) (*types.Receipt, error) {
	snapshot := s.session.GetSession()
	if !snapshot.Ready() {
		return nil, types.NewSessionNotReadyError(snapshot.Status)
	}

	op := &pendingOperation{
		id:        uuid.NewString(),
		kind:      kind,
		account:   snapshot.Account,
		startedAt: s.clock.Now(),
	}
	s.step(op, types.OperationBuilding, nil)

	receipt, err := s.execute(ctx, op, params)
	if err != nil {
		s.step(op, types.OperationFailed, err)
		return nil, err
	}
	s.step(op, types.OperationIncluded, nil)
	return receipt, nil
}

func (s *Service) execute(ctx context.Context, op *pendingOperation, params types.OperationParams) (*types.Receipt, error) {
	account := op.account
	client := account.Client

	encoded, err := s.encode(ctx, client, op.kind, params)
	if err != nil {
		return nil, err
	}
	contractABI := &encoded.contract.ABI

	release, err := s.slots.acquire(ctx, account.Address)
	if err != nil {
		return nil, types.NewNetworkError(types.CodeTransient, "acquire_wallet", err)
	}
	defer release()

	nonce, err := s.allocateNonce(ctx, account)
	if err != nil {
		return nil, err
	}
	op.nonce = nonce

	var userOp *types.UserOperation
	err = s.retry(ctx, func() error {
		built, err := account.Builder.Build(ctx, encoded.call, nonce)
		if err != nil {
			return classify("build", err, contractABI)
		}
		if _, err := account.Builder.Sign(ctx, built); err != nil {
			if we := types.AsWalletError(err); we != nil {
				return err
			}
			return types.NewBridgeError(types.CodeDisconnected, "cannot sign user operation", err)
		}
		userOp = built
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交只尝试一次
	hash, err := client.SendUserOperation(ctx, userOp)
	if err != nil {
		s.releaseNonce(ctx, account.Address, nonce, err)
		return nil, classify("send", err, contractABI)
	}
	if s.nonces != nil {
		next := new(big.Int).Add(nonce, big.NewInt(1))
		if cerr := s.nonces.Commit(context.WithoutCancel(ctx), account.Address, next); cerr != nil {
			s.warnf("记录 nonce 失败: wallet=%s, err=%v", account.Address.Hex(), cerr)
		}
	}
	release()

	op.userOpHash = hash
	op.sentAt = s.clock.Now()
	s.step(op, types.OperationSubmitted, nil)

	result, err := s.awaitInclusion(ctx, client, hash)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, types.NewContractCallError(types.CodeReverted, "execute",
			aa.DecodeReceiptReason(result.Reason, contractABI), nil)
	}

	return &types.Receipt{
		OperationID:   op.id,
		Kind:          op.kind,
		Wallet:        account.Address,
		UserOpHash:    hash,
		TxHash:        result.TxHash,
		Nonce:         new(big.Int).Set(nonce),
		BlockNumber:   result.BlockNumber,
		Success:       true,
		ActualGasCost: result.ActualGasCost,
		ActualGasUsed: result.ActualGasUsed,
		SubmittedAt:   op.sentAt,
		IncludedAt:    s.clock.Now(),
	}, nil
}

// allocateNonce 取链上 nonce 与本地已提交记录中的较大者
//
// 链上 nonce 只在上链后递增，本地记录覆盖已提交但未上链的操作。
func (s *Service) allocateNonce(ctx context.Context, account *aaIface.Account) (*big.Int, error) {
	var onChain *big.Int
	err := s.retry(ctx, func() error {
		n, err := account.Client.GetNonce(ctx, account.Address, nil)
		if err != nil {
			return aa.ClassifyError("get_nonce", err)
		}
		onChain = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	nonce := new(big.Int).Set(onChain)
	if s.nonces == nil {
		return nonce, nil
	}
	local, ok, err := s.nonces.Next(ctx, account.Address)
	if err != nil {
		s.warnf("读取 nonce 缓存失败，使用链上值: wallet=%s, err=%v", account.Address.Hex(), err)
		return nonce, nil
	}
	if ok && local.Cmp(nonce) > 0 {
		nonce.Set(local)
	}
	return nonce, nil
}

// releaseNonce 提交失败后处理本地 nonce 记录
//
// Bundler 拒绝 nonce 说明本地记录已过期，删除后下次以链上值为准；
// 其他失败时该 nonce 未被占用，写回供下一个操作使用，之前仍在等待上链的操作不受影响。
func (s *Service) releaseNonce(ctx context.Context, wallet common.Address, nonce *big.Int, sendErr error) {
	if s.nonces == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if nonceRejected(sendErr) {
		if err := s.nonces.Reset(ctx, wallet); err != nil {
			s.warnf("重置 nonce 缓存失败: wallet=%s, err=%v", wallet.Hex(), err)
		}
		return
	}
	if err := s.nonces.Commit(ctx, wallet, nonce); err != nil {
		s.warnf("回写 nonce 失败: wallet=%s, err=%v", wallet.Hex(), err)
	}
}

// step 通知观测钩子
func (s *Service) step(op *pendingOperation, state types.OperationState, err error) {
	e := metrics.OperationEvent{
		OperationID: op.id,
		Kind:        op.kind,
		State:       state,
		Wallet:      op.account.Address,
		UserOpHash:  op.userOpHash,
		Err:         err,
		Elapsed:     s.clock.Since(op.startedAt),
		At:          s.clock.Now(),
	}
	if op.nonce != nil {
		e.Nonce = op.nonce.String()
	}
	s.hook.OnOperationStep(e)
}

func (s *Service) warnf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warnf(format, args...)
	}
}

// TokenBalance 查询当前钱包在代币合约上的余额
func (s *Service) TokenBalance(ctx context.Context) (*TokenAmount, error) {
	snapshot := s.session.GetSession()
	if !snapshot.Ready() {
		return nil, types.NewSessionNotReadyError(snapshot.Status)
	}
	account := snapshot.Account

	contract, err := s.registry.Contract(registryIface.ArcToken)
	if err != nil {
		return nil, types.NewInvalidParamsError("token_balance", "contract lookup failed", err)
	}
	decimals, err := s.tokenDecimals(ctx, account.Client, contract)
	if err != nil {
		return nil, err
	}
	input, err := contract.ABI.Pack("balanceOf", account.Address)
	if err != nil {
		return nil, types.NewInvalidParamsError("token_balance", "cannot encode balanceOf", err)
	}
	out, err := account.Client.Call(ctx, contract.Address, input)
	if err != nil {
		return nil, classify("token_balance", err, &contract.ABI)
	}
	values, err := contract.ABI.Unpack("balanceOf", out)
	if err != nil || len(values) != 1 {
		return nil, types.NewContractCallError(types.CodeReverted, "token_balance", "malformed balanceOf() result", err)
	}
	units, ok := values[0].(*big.Int)
	if !ok {
		return nil, types.NewContractCallError(types.CodeReverted, "token_balance",
			fmt.Sprintf("unexpected balanceOf() type %T", values[0]), nil)
	}
	return NewTokenAmount(units, decimals), nil
}

var _ gatewayIface.Gateway = (*Service)(nil)
