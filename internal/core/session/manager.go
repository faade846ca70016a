// Package session 实现会话管理器
//
// 📋 **会话状态机**
//
// Manager 是进程内唯一的会话持有者，负责把身份提供者的登录结果经签名桥接、
// 账户抽象解析转换为可执行合约操作的 ready 会话。
//
// 并发模型：
//   - transitionMu 串行化状态迁移及其快照发布，保证监听者按迁移顺序收到快照
//   - mu 只保护当前快照的读写，监听者回调中可以安全调用 GetSession
//   - epoch 在 Logout 时递增，仍在进行中的登录据此丢弃自己的结果
//
// 监听者在迁移路径上同步执行，不得在回调中同步调用 Login/Logout/Init。
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/clock"
	eventimpl "github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
	infraClock "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	sessionIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/session"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// Options 会话管理器依赖
type Options struct {
	Provider identity.Provider
	Bridge   wallet.Bridge
	Resolver aa.Resolver
	Hook     metrics.Hook     // 可为 nil
	Clock    infraClock.Clock // 可为 nil，默认系统时钟
	Logger   log.Logger       // 可为 nil
}

// Manager 会话管理器
type Manager struct {
	provider identity.Provider
	bridge   wallet.Bridge
	resolver aa.Resolver
	hook     metrics.Hook
	clock    infraClock.Clock
	logger   log.Logger

	// bus 仅用于向监听者分发快照，不受共享事件总线开关影响
	bus *eventimpl.EventBus

	transitionMu sync.Mutex
	epoch        uint64 // 受 transitionMu 保护

	mu    sync.RWMutex
	state sessionIface.Snapshot
}

// NewManager 创建会话管理器，初始状态为 idle
func NewManager(opts Options) *Manager {
	hook := opts.Hook
	if hook == nil {
		hook = metrics.NopHook{}
	}
	m := &Manager{
		provider: opts.Provider,
		bridge:   opts.Bridge,
		resolver: opts.Resolver,
		hook:     hook,
		clock:    clock.OrSystem(opts.Clock),
		logger:   opts.Logger,
		bus:      eventimpl.New(nil).WithLogger(opts.Logger),
		state:    sessionIface.Snapshot{Status: types.SessionIdle},
	}
	return m
}

// GetSession 返回当前会话快照
func (m *Manager) GetSession() sessionIface.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySnapshot(m.state)
}

// Subscribe 订阅每次状态迁移；订阅时不会补发当前快照
func (m *Manager) Subscribe(listener sessionIface.Listener) func() {
	if listener == nil {
		return func() {}
	}
	id, err := m.bus.SubscribeWithID(event.EventTypeSessionChanged, func(data interface{}) {
		if snap, ok := data.(sessionIface.Snapshot); ok {
			listener(snap)
		}
	})
	if err != nil {
		m.warnf("订阅会话快照失败: %v", err)
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := m.bus.UnsubscribeByID(id); err != nil {
				m.warnf("取消会话订阅失败: %v", err)
			}
		})
	}
}

// Init 尝试静默恢复已有的提供者会话
//
// 没有可恢复的会话时回到 idle；恢复失败同样回到 idle，并把分类后的错误返回给调用方。
// 会话已 ready 时不做任何事。
func (m *Manager) Init(ctx context.Context) (sessionIface.Snapshot, error) {
	epoch, snap, err := m.begin(types.SessionInitializing)
	if err != nil || snap.Status == types.SessionReady {
		return snap, err
	}

	handle, err := m.provider.RestoreSession(ctx)
	if err != nil {
		werr := classifyProviderError("restore_session", err)
		snap, _ := m.advance(epoch, func(s *sessionIface.Snapshot) {
			*s = sessionIface.Snapshot{Status: types.SessionIdle}
		})
		m.warnf("恢复会话失败: %v", werr)
		return snap, werr
	}
	if handle == nil {
		snap, ok := m.advance(epoch, func(s *sessionIface.Snapshot) {
			*s = sessionIface.Snapshot{Status: types.SessionIdle}
		})
		if !ok {
			return snap, sessionResetError("restore_session")
		}
		return snap, nil
	}
	return m.complete(ctx, epoch, handle)
}

// Login 交互式登录
//
// 会话已 ready 时直接返回当前快照；已有登录或恢复流程进行中时返回 ConcurrentLoginError，
// 不改变状态。
func (m *Manager) Login(ctx context.Context) (sessionIface.Snapshot, error) {
	epoch, snap, err := m.begin(types.SessionAwaitingProvider)
	if err != nil || snap.Status == types.SessionReady {
		return snap, err
	}

	handle, err := m.provider.Connect(ctx)
	if err != nil {
		werr := classifyProviderError("connect", err)
		snap, ok := m.advance(epoch, func(s *sessionIface.Snapshot) {
			*s = sessionIface.Snapshot{Status: types.SessionError, LastError: werr}
		})
		if !ok {
			return snap, sessionResetError("connect")
		}
		return snap, werr
	}
	return m.complete(ctx, epoch, handle)
}

// Logout 清空会话并断开提供者，永不失败
func (m *Manager) Logout(ctx context.Context) sessionIface.Snapshot {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	m.epoch++
	snap := m.GetSession()
	if snap.Status != types.SessionIdle {
		snap = m.transitionLocked(func(s *sessionIface.Snapshot) {
			*s = sessionIface.Snapshot{Status: types.SessionIdle}
		})
	}
	m.disconnectLocked(ctx)
	return snap
}

// begin 检查能否发起新流程并迁移到 first
func (m *Manager) begin(first types.SessionStatus) (uint64, sessionIface.Snapshot, error) {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	cur := m.GetSession()
	switch {
	case cur.Status == types.SessionReady:
		return m.epoch, cur, nil
	case cur.Status.InFlight():
		return m.epoch, cur, types.NewConcurrentLoginError(cur.Status)
	}

	snap := m.transitionLocked(func(s *sessionIface.Snapshot) {
		*s = sessionIface.Snapshot{Status: first}
	})
	return m.epoch, snap, nil
}

// complete 已取得提供者句柄：桥接签名器并解析智能合约钱包
func (m *Manager) complete(ctx context.Context, epoch uint64, handle identity.ProviderHandle) (sessionIface.Snapshot, error) {
	signer, err := m.bridge.ToSigner(ctx, handle)
	if err != nil {
		werr := types.AsWalletError(err)
		if werr == nil {
			werr = types.NewBridgeError(types.CodeMissingCapability, "", err)
		}
		return m.fail(ctx, epoch, werr)
	}

	snap, ok := m.advance(epoch, func(s *sessionIface.Snapshot) {
		*s = sessionIface.Snapshot{Status: types.SessionProviderConnected, Signer: signer}
	})
	if !ok {
		return snap, sessionResetError("bridge")
	}
	snap, ok = m.advance(epoch, func(s *sessionIface.Snapshot) {
		s.Status = types.SessionDerivingWallet
	})
	if !ok {
		return snap, sessionResetError("bridge")
	}

	account, err := m.resolver.Resolve(ctx, signer)
	if err != nil {
		werr := types.AsWalletError(err)
		if werr == nil || werr.Kind != types.ErrKindWalletDerivation {
			werr = types.NewWalletDerivationError(types.CodeUnreachable, "resolve smart account", err)
		}
		return m.fail(ctx, epoch, werr)
	}

	snap, ok = m.advance(epoch, func(s *sessionIface.Snapshot) {
		addr := account.Address
		*s = sessionIface.Snapshot{
			Status:        types.SessionReady,
			Signer:        signer,
			WalletAddress: &addr,
			Account:       account,
		}
	})
	if !ok {
		return snap, sessionResetError("resolve")
	}
	m.infof("会话就绪: owner=%s wallet=%s deployed=%t", account.Owner.Hex(), account.Address.Hex(), account.Deployed)
	return snap, nil
}

// fail 迁移到 error，丢弃签名器并断开提供者
func (m *Manager) fail(ctx context.Context, epoch uint64, werr *types.WalletError) (sessionIface.Snapshot, error) {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	if m.epoch != epoch {
		return m.GetSession(), sessionResetError(werr.Op)
	}
	snap := m.transitionLocked(func(s *sessionIface.Snapshot) {
		*s = sessionIface.Snapshot{Status: types.SessionError, LastError: werr}
	})
	m.disconnectLocked(ctx)
	return snap, werr
}

// advance 仅当流程未被 Logout 作废时执行迁移
//
// 作废的流程不改变状态；若此时没有新的流程在进行，顺带断开提供者，
// 避免登出之后才完成的握手遗留会话。
func (m *Manager) advance(epoch uint64, mutate func(*sessionIface.Snapshot)) (sessionIface.Snapshot, bool) {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	if m.epoch != epoch {
		cur := m.GetSession()
		if cur.Status == types.SessionIdle {
			m.disconnectLocked(context.Background())
		}
		m.debugf("丢弃已作废的登录结果: epoch=%d current=%d", epoch, m.epoch)
		return cur, false
	}
	return m.transitionLocked(mutate), true
}

// transitionLocked 应用迁移、发布快照并通知观测钩子，调用方持有 transitionMu
func (m *Manager) transitionLocked(mutate func(*sessionIface.Snapshot)) sessionIface.Snapshot {
	m.mu.Lock()
	from := m.state.Status
	next := m.state
	mutate(&next)
	next.Version = m.state.Version + 1
	m.state = next
	snap := copySnapshot(next)
	m.mu.Unlock()

	m.debugf("会话状态迁移: %s -> %s (version=%d)", from, snap.Status, snap.Version)
	m.hook.OnSessionTransition(metrics.SessionTransition{
		From:    from,
		To:      snap.Status,
		Version: snap.Version,
		Err:     snap.LastError,
		At:      m.clock.Now(),
	})
	m.bus.Publish(event.EventTypeSessionChanged, snap)
	return snap
}

func (m *Manager) disconnectLocked(ctx context.Context) {
	if err := m.provider.Disconnect(ctx); err != nil {
		m.warnf("断开身份提供者失败: %v", err)
	}
}

// classifyProviderError 区分用户取消与传输失败
func classifyProviderError(op string, err error) *types.WalletError {
	if werr := types.AsWalletError(err); werr != nil && werr.Kind == types.ErrKindProviderConnection {
		return werr
	}
	if errors.Is(err, types.ErrUserCancelled) || errors.Is(err, context.Canceled) {
		return types.NewProviderConnectionError(types.CodeUserCancelled, op, err)
	}
	return types.NewProviderConnectionError(types.CodeTransport, op, err)
}

func sessionResetError(op string) *types.WalletError {
	return types.NewProviderConnectionError(types.CodeSessionReset, op, errors.New("session was reset by logout"))
}

func copySnapshot(s sessionIface.Snapshot) sessionIface.Snapshot {
	if s.WalletAddress != nil {
		addr := *s.WalletAddress
		s.WalletAddress = &addr
	}
	return s
}

func (m *Manager) debugf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Debugf(format, args...)
	}
}

func (m *Manager) infof(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Infof(format, args...)
	}
}

func (m *Manager) warnf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Warnf(format, args...)
	}
}

var _ sessionIface.Manager = (*Manager)(nil)
