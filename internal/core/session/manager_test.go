package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmasken/arcadehub-sub003/internal/core/bridge"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	sessionIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/session"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// keyHandle 提供私钥的提供者句柄
type keyHandle struct {
	key          []byte
	disconnected atomic.Bool
}

func newKeyHandle(t *testing.T) *keyHandle {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keyHandle{key: crypto.FromECDSA(key)}
}

func (h *keyHandle) Connected() bool             { return !h.disconnected.Load() }
func (h *keyHandle) PrivateKey() ([]byte, error) { return h.key, nil }

// fakeProvider 可控的身份提供者
type fakeProvider struct {
	handle      identity.ProviderHandle
	connectErr  error
	restore     identity.ProviderHandle
	restoreErr  error
	gate        chan struct{} // 非 nil 时 Connect/RestoreSession 等待放行
	entered     chan struct{}
	connects    atomic.Int32
	disconnects atomic.Int32
}

func (p *fakeProvider) wait(ctx context.Context) error {
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.gate == nil {
		return nil
	}
	select {
	case <-p.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakeProvider) Connect(ctx context.Context) (identity.ProviderHandle, error) {
	p.connects.Add(1)
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	return p.handle, nil
}

func (p *fakeProvider) Disconnect(ctx context.Context) error {
	p.disconnects.Add(1)
	return nil
}

func (p *fakeProvider) RestoreSession(ctx context.Context) (identity.ProviderHandle, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.restore, p.restoreErr
}

// fakeResolver 以所有者地址派生固定的钱包地址
type fakeResolver struct {
	err     error
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int32
}

func (r *fakeResolver) Resolve(ctx context.Context, signer wallet.Signer) (*aa.Account, error) {
	r.calls.Add(1)
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.gate != nil {
		<-r.gate
	}
	if r.err != nil {
		return nil, r.err
	}
	return &aa.Account{
		Owner:   signer.Address(),
		Address: crypto.CreateAddress(signer.Address(), 0),
	}, nil
}

// recordHook 记录迁移
type recordHook struct {
	mu          sync.Mutex
	transitions []metrics.SessionTransition
}

func (h *recordHook) OnSessionTransition(t metrics.SessionTransition) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transitions = append(h.transitions, t)
}

func (h *recordHook) OnOperationStep(metrics.OperationEvent) {}

func (h *recordHook) all() []metrics.SessionTransition {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]metrics.SessionTransition(nil), h.transitions...)
}

type fixture struct {
	provider *fakeProvider
	resolver *fakeResolver
	hook     *recordHook
	manager  *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		provider: &fakeProvider{handle: newKeyHandle(t)},
		resolver: &fakeResolver{},
		hook:     &recordHook{},
	}
	f.manager = NewManager(Options{
		Provider: f.provider,
		Bridge:   bridge.New(nil),
		Resolver: f.resolver,
		Hook:     f.hook,
	})
	return f
}

// statuses 订阅并收集迁移后的状态
func statuses(m *Manager) (func() []types.SessionStatus, func()) {
	var mu sync.Mutex
	var seen []types.SessionStatus
	unsubscribe := m.Subscribe(func(s sessionIface.Snapshot) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})
	return func() []types.SessionStatus {
		mu.Lock()
		defer mu.Unlock()
		return append([]types.SessionStatus(nil), seen...)
	}, unsubscribe
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("等待超时")
	}
}

func TestLogin_TransitionSequence(t *testing.T) {
	f := newFixture(t)
	seen, unsubscribe := statuses(f.manager)
	defer unsubscribe()

	var versions []uint64
	f.manager.Subscribe(func(s sessionIface.Snapshot) { versions = append(versions, s.Version) })

	snap, err := f.manager.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []types.SessionStatus{
		types.SessionAwaitingProvider,
		types.SessionProviderConnected,
		types.SessionDerivingWallet,
		types.SessionReady,
	}, seen())
	assert.Equal(t, []uint64{1, 2, 3, 4}, versions)

	assert.True(t, snap.Ready())
	require.NotNil(t, snap.Signer)
	require.NotNil(t, snap.WalletAddress)
	assert.Equal(t, crypto.CreateAddress(snap.Signer.Address(), 0), *snap.WalletAddress)
	assert.Nil(t, snap.LastError)

	transitions := f.hook.all()
	require.Len(t, transitions, 4)
	assert.Equal(t, types.SessionIdle, transitions[0].From)
	assert.Equal(t, types.SessionDerivingWallet, transitions[3].From)
	assert.Equal(t, types.SessionReady, transitions[3].To)
	assert.False(t, transitions[3].At.IsZero())
}

func TestLogin_ReadyIsNoop(t *testing.T) {
	f := newFixture(t)
	first, err := f.manager.Login(context.Background())
	require.NoError(t, err)

	again, err := f.manager.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version)
	assert.Equal(t, int32(1), f.provider.connects.Load())

	// 快照是副本
	*again.WalletAddress = [20]byte{}
	assert.Equal(t, *first.WalletAddress, *f.manager.GetSession().WalletAddress)
}

func TestLogin_ConcurrentRejected(t *testing.T) {
	f := newFixture(t)
	f.provider.gate = make(chan struct{})
	f.provider.entered = make(chan struct{}, 1)

	type result struct {
		snap sessionIface.Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := f.manager.Login(context.Background())
		done <- result{snap, err}
	}()
	waitFor(t, f.provider.entered)

	before := f.manager.GetSession()
	_, err := f.manager.Login(context.Background())
	assert.ErrorIs(t, err, types.ErrConcurrentLogin)
	_, err = f.manager.Init(context.Background())
	assert.ErrorIs(t, err, types.ErrConcurrentLogin)
	assert.Equal(t, before, f.manager.GetSession(), "被拒绝的登录不改变状态")

	close(f.provider.gate)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, types.SessionReady, res.snap.Status)
	assert.Equal(t, int32(1), f.provider.connects.Load())
}

func TestLogin_ConnectErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code types.ErrorCode
	}{
		{"user cancelled", fmt.Errorf("popup closed: %w", types.ErrUserCancelled), types.CodeUserCancelled},
		{"context cancelled", context.Canceled, types.CodeUserCancelled},
		{"transport", errors.New("oauth endpoint unreachable"), types.CodeTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.provider.connectErr = tc.err

			snap, err := f.manager.Login(context.Background())
			require.ErrorIs(t, err, types.ErrProviderConnection)
			assert.ErrorIs(t, err, &types.WalletError{Kind: types.ErrKindProviderConnection, Code: tc.code})
			assert.Equal(t, types.SessionError, snap.Status)
			require.NotNil(t, snap.LastError)
			assert.Equal(t, tc.code, snap.LastError.Code)
			assert.Nil(t, snap.Signer)
			assert.Zero(t, f.resolver.calls.Load())
		})
	}
}

func TestLogin_DerivationFailureResets(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = types.NewWalletDerivationError(types.CodeChainMismatch, "chain id 1, want 31337", nil)

	snap, err := f.manager.Login(context.Background())
	require.ErrorIs(t, err, types.ErrWalletDerivation)
	assert.Equal(t, types.SessionError, snap.Status)
	assert.Nil(t, snap.Signer, "派生失败后丢弃签名器")
	assert.Nil(t, snap.WalletAddress)
	assert.Equal(t, types.CodeChainMismatch, snap.LastError.Code)
	assert.Equal(t, int32(1), f.provider.disconnects.Load())

	// error 状态等同 idle，可重新登录
	f.resolver.err = nil
	snap, err = f.manager.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.SessionReady, snap.Status)
	assert.Nil(t, snap.LastError)
}

func TestLogin_UnclassifiedResolverError(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = errors.New("boom")

	_, err := f.manager.Login(context.Background())
	assert.ErrorIs(t, err, types.ErrWalletDerivation)
}

func TestLogin_BridgeFailure(t *testing.T) {
	f := newFixture(t)
	handle := newKeyHandle(t)
	handle.disconnected.Store(true)
	f.provider.handle = handle

	snap, err := f.manager.Login(context.Background())
	require.ErrorIs(t, err, types.ErrBridge)
	assert.Equal(t, types.SessionError, snap.Status)
	assert.Equal(t, types.CodeDisconnected, snap.LastError.Code)
	assert.Zero(t, f.resolver.calls.Load())
}

func TestLogout_FromEveryState(t *testing.T) {
	ctx := context.Background()

	t.Run("idle", func(t *testing.T) {
		f := newFixture(t)
		snap := f.manager.Logout(ctx)
		assert.Equal(t, types.SessionIdle, snap.Status)
		assert.Zero(t, snap.Version, "已是 idle 时不发布迁移")
		assert.Equal(t, int32(1), f.provider.disconnects.Load())
	})

	t.Run("ready", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.Login(ctx)
		require.NoError(t, err)
		assertCleared(t, f.manager.Logout(ctx))
	})

	t.Run("error", func(t *testing.T) {
		f := newFixture(t)
		f.provider.connectErr = errors.New("boom")
		_, err := f.manager.Login(ctx)
		require.Error(t, err)
		assertCleared(t, f.manager.Logout(ctx))
	})

	t.Run("awaiting_provider", func(t *testing.T) {
		f := newFixture(t)
		f.provider.gate = make(chan struct{})
		f.provider.entered = make(chan struct{}, 1)
		errCh := make(chan error, 1)
		go func() {
			_, err := f.manager.Login(ctx)
			errCh <- err
		}()
		waitFor(t, f.provider.entered)

		assertCleared(t, f.manager.Logout(ctx))
		close(f.provider.gate)

		err := <-errCh
		assert.ErrorIs(t, err, &types.WalletError{Kind: types.ErrKindProviderConnection, Code: types.CodeSessionReset})
		assertCleared(t, f.manager.GetSession())
	})

	t.Run("initializing", func(t *testing.T) {
		f := newFixture(t)
		f.provider.restore = newKeyHandle(t)
		f.provider.gate = make(chan struct{})
		f.provider.entered = make(chan struct{}, 1)
		errCh := make(chan error, 1)
		go func() {
			_, err := f.manager.Init(ctx)
			errCh <- err
		}()
		waitFor(t, f.provider.entered)
		assert.Equal(t, types.SessionInitializing, f.manager.GetSession().Status)

		assertCleared(t, f.manager.Logout(ctx))
		close(f.provider.gate)

		assert.ErrorIs(t, <-errCh, types.ErrProviderConnection)
		assertCleared(t, f.manager.GetSession())
	})

	t.Run("deriving_wallet", func(t *testing.T) {
		f := newFixture(t)
		f.resolver.gate = make(chan struct{})
		f.resolver.entered = make(chan struct{}, 1)
		errCh := make(chan error, 1)
		go func() {
			_, err := f.manager.Login(ctx)
			errCh <- err
		}()
		waitFor(t, f.resolver.entered)
		assert.Equal(t, types.SessionDerivingWallet, f.manager.GetSession().Status)

		assertCleared(t, f.manager.Logout(ctx))
		close(f.resolver.gate)

		assert.ErrorIs(t, <-errCh, types.ErrProviderConnection)
		assertCleared(t, f.manager.GetSession())
	})
}

func assertCleared(t *testing.T, snap sessionIface.Snapshot) {
	t.Helper()
	assert.Equal(t, types.SessionIdle, snap.Status)
	assert.Nil(t, snap.Signer)
	assert.Nil(t, snap.WalletAddress)
	assert.Nil(t, snap.Account)
	assert.Nil(t, snap.LastError)
}

func TestInit_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to restore", func(t *testing.T) {
		f := newFixture(t)
		seen, unsubscribe := statuses(f.manager)
		defer unsubscribe()

		snap, err := f.manager.Init(ctx)
		require.NoError(t, err)
		assert.Equal(t, types.SessionIdle, snap.Status)
		assert.Equal(t, []types.SessionStatus{types.SessionInitializing, types.SessionIdle}, seen())
	})

	t.Run("restored", func(t *testing.T) {
		f := newFixture(t)
		f.provider.restore = newKeyHandle(t)
		seen, unsubscribe := statuses(f.manager)
		defer unsubscribe()

		snap, err := f.manager.Init(ctx)
		require.NoError(t, err)
		assert.True(t, snap.Ready())
		assert.Equal(t, []types.SessionStatus{
			types.SessionInitializing,
			types.SessionProviderConnected,
			types.SessionDerivingWallet,
			types.SessionReady,
		}, seen())
		assert.Zero(t, f.provider.connects.Load(), "静默恢复不触发交互登录")

		// ready 时 Init 不做任何事
		again, err := f.manager.Init(ctx)
		require.NoError(t, err)
		assert.Equal(t, snap.Version, again.Version)
	})

	t.Run("restore failure", func(t *testing.T) {
		f := newFixture(t)
		f.provider.restoreErr = errors.New("corrupt session file")

		snap, err := f.manager.Init(ctx)
		require.ErrorIs(t, err, types.ErrProviderConnection)
		assert.Equal(t, types.SessionIdle, snap.Status)
		assert.Nil(t, snap.LastError)
	})
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)

	var calls atomic.Int32
	var inside sessionIface.Snapshot
	unsubscribe := f.manager.Subscribe(func(s sessionIface.Snapshot) {
		calls.Add(1)
		inside = f.manager.GetSession() // 回调中读取快照不会死锁
	})
	assert.Zero(t, calls.Load(), "订阅时不补发当前快照")

	_, err := f.manager.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, types.SessionReady, inside.Status)

	unsubscribe()
	unsubscribe()
	f.manager.Logout(context.Background())
	assert.Equal(t, int32(4), calls.Load())

	noop := f.manager.Subscribe(nil)
	noop()
}

func TestSubscribe_PanickingListenerIsolated(t *testing.T) {
	f := newFixture(t)
	f.manager.Subscribe(func(sessionIface.Snapshot) { panic("listener bug") })
	var calls atomic.Int32
	f.manager.Subscribe(func(sessionIface.Snapshot) { calls.Add(1) })

	snap, err := f.manager.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.SessionReady, snap.Status)
	assert.Equal(t, int32(4), calls.Load())
}
