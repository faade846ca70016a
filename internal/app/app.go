// Package app 装配会话与智能合约钱包核心，并向 UI 与命令行暴露 Core
package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/fx"

	"github.com/cosmasken/arcadehub-sub003/internal/core/aa"
	"github.com/cosmasken/arcadehub-sub003/internal/core/gateway"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/session"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// Core 对外接口
//
// 进程内只有一个会话；GetSession 与 Subscribe 是读取会话的唯一途径。
type Core interface {
	// GetSession 当前会话快照
	GetSession() session.Snapshot

	// Subscribe 订阅会话迁移，返回取消订阅函数
	Subscribe(listener session.Listener) func()

	// Init 启动时静默恢复已有会话
	Init(ctx context.Context) (session.Snapshot, error)

	// Login 交互式登录并派生钱包
	Login(ctx context.Context) (session.Snapshot, error)

	// Logout 清空会话
	Logout(ctx context.Context) session.Snapshot

	// Execute 执行合约操作并等待上链
	Execute(ctx context.Context, kind types.OperationKind, params types.OperationParams) (*types.Receipt, error)

	// TokenBalance 钱包的代币余额
	TokenBalance(ctx context.Context) (*gateway.TokenAmount, error)

	// NativeBalance 钱包的原生代币余额（wei）
	NativeBalance(ctx context.Context) (*big.Int, error)

	// SubscribeOperations 订阅合约操作进度；事件系统关闭时返回错误
	SubscribeOperations(handler func(metrics.OperationEvent)) (func(), error)

	// Config 生效的配置
	Config() config.Provider

	// Stop 停止应用并释放连接
	Stop(ctx context.Context) error
}

// coreDeps 从依赖图取出的组件
type coreDeps struct {
	fx.In

	Provider config.Provider
	Manager  session.Manager
	Gateway  *gateway.Service
	EventBus event.EventBus
	Logger   log.Logger
}

// internalApp Core 的实现
type internalApp struct {
	bootstrap *Bootstrap
	deps      coreDeps
}

// New 装配并启动应用
func New(opts ...Option) (Core, error) {
	o := newOptions(opts...)
	if err := o.resolve(); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	a := &internalApp{}
	bootstrap := NewBootstrap(o)
	if err := bootstrap.CreateFxApp(fx.Populate(&a.deps)); err != nil {
		return nil, fmt.Errorf("创建应用失败: %w", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := bootstrap.StartApp(startupCtx); err != nil {
		return nil, err
	}
	a.bootstrap = bootstrap
	a.deps.Logger.With("module", "app").Infof("应用已启动: environment=%s, chain_id=%d",
		a.deps.Provider.GetEnvironment(), a.deps.Provider.GetChain().ChainID)
	return a, nil
}

func (a *internalApp) GetSession() session.Snapshot { return a.deps.Manager.GetSession() }

func (a *internalApp) Subscribe(listener session.Listener) func() {
	return a.deps.Manager.Subscribe(listener)
}

func (a *internalApp) Init(ctx context.Context) (session.Snapshot, error) {
	return a.deps.Manager.Init(ctx)
}

func (a *internalApp) Login(ctx context.Context) (session.Snapshot, error) {
	return a.deps.Manager.Login(ctx)
}

func (a *internalApp) Logout(ctx context.Context) session.Snapshot {
	return a.deps.Manager.Logout(ctx)
}

func (a *internalApp) Execute(ctx context.Context, kind types.OperationKind, params types.OperationParams) (*types.Receipt, error) {
	return a.deps.Gateway.Execute(ctx, kind, params)
}

func (a *internalApp) TokenBalance(ctx context.Context) (*gateway.TokenAmount, error) {
	return a.deps.Gateway.TokenBalance(ctx)
}

func (a *internalApp) NativeBalance(ctx context.Context) (*big.Int, error) {
	snapshot := a.GetSession()
	if !snapshot.Ready() {
		return nil, types.NewSessionNotReadyError(snapshot.Status)
	}
	balance, err := snapshot.Account.Client.BalanceAt(ctx, snapshot.Account.Address)
	if err != nil {
		return nil, aa.ClassifyError("balance", err)
	}
	return balance, nil
}

func (a *internalApp) SubscribeOperations(handler func(metrics.OperationEvent)) (func(), error) {
	if !a.deps.Provider.GetEvent().Enabled {
		return nil, fmt.Errorf("event system is disabled")
	}
	id, err := a.deps.EventBus.SubscribeWithID(event.EventTypeOperationStep, func(data interface{}) {
		if e, ok := data.(metrics.OperationEvent); ok {
			handler(e)
		}
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = a.deps.EventBus.UnsubscribeByID(id) }, nil
}

func (a *internalApp) Config() config.Provider { return a.deps.Provider }

// Stop 停止应用（包括所有生命周期钩子）
func (a *internalApp) Stop(ctx context.Context) error {
	return a.bootstrap.StopApp(ctx)
}
