package gateway

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chainconfig "github.com/cosmasken/arcadehub-sub003/internal/config/chain"
	gatewayconfig "github.com/cosmasken/arcadehub-sub003/internal/config/gateway"
	"github.com/cosmasken/arcadehub-sub003/internal/core/aa"
	"github.com/cosmasken/arcadehub-sub003/internal/core/aa/testutil"
	"github.com/cosmasken/arcadehub-sub003/internal/core/bridge"
	"github.com/cosmasken/arcadehub-sub003/internal/core/gateway/ports/noncestore"
	"github.com/cosmasken/arcadehub-sub003/internal/core/registry"
	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	registryIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/registry"
	sessionIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/session"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

const testChainID = 31337

var (
	hubAddress   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	nftAddress   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	tokenAddress = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	spender      = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	player       = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

// stubSession 固定快照
type stubSession struct {
	mu       sync.Mutex
	snapshot sessionIface.Snapshot
}

func (s *stubSession) GetSession() sessionIface.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// recordHook 记录操作步骤
type recordHook struct {
	mu    sync.Mutex
	steps []metrics.OperationEvent
	on    func(metrics.OperationEvent)
}

func (h *recordHook) OnSessionTransition(metrics.SessionTransition) {}

func (h *recordHook) OnOperationStep(e metrics.OperationEvent) {
	h.mu.Lock()
	h.steps = append(h.steps, e)
	on := h.on
	h.mu.Unlock()
	if on != nil {
		on(e)
	}
}

func (h *recordHook) states() []types.OperationState {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.OperationState, len(h.steps))
	for i, e := range h.steps {
		out[i] = e.State
	}
	return out
}

func (h *recordHook) last() metrics.OperationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.steps[len(h.steps)-1]
}

type fixture struct {
	chain    *testutil.Chain
	account  *aaIface.Account
	registry *registry.Registry
	nonces   *noncestore.MemoryStore
	hook     *recordHook
	session  *stubSession
	svc      *Service
}

func testOptions() gatewayconfig.GatewayOptions {
	return gatewayconfig.GatewayOptions{
		InclusionTimeout: 5 * time.Second,
		PollInitial:      5 * time.Millisecond,
		PollMax:          20 * time.Millisecond,
		PollFactor:       1.5,
		MaxRetries:       2,
		RetryBackoff:     time.Millisecond,
	}
}

func newFixture(t *testing.T, tweak func(*gatewayconfig.GatewayOptions)) *fixture {
	t.Helper()
	chain := testutil.NewChain(testChainID)
	t.Cleanup(chain.Stop)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainOpts := chainconfig.New(nil).GetOptions()
	chainOpts.ChainID = testChainID
	resolver := aa.NewResolver(aa.Options{
		Chain: chainOpts,
		Dial: func(ctx context.Context) (aaIface.Client, error) {
			return aa.NewClient(chain.RPC(), nil, aa.ClientOptions{EntryPoint: chain.EntryPoint, FeeMultiplier: 100}), nil
		},
		ProbeBackoff: time.Millisecond,
	})
	t.Cleanup(resolver.Close)
	account, err := resolver.Resolve(context.Background(), bridge.NewLocalSigner(key, nil))
	require.NoError(t, err)

	reg, err := registry.Load(nil, nil)
	require.NoError(t, err)
	eighteen := uint8(18)
	registerDefault(t, reg, registryIface.ArcadeHub, hubAddress, nil)
	registerDefault(t, reg, registryIface.ArcadeNFT, nftAddress, nil)
	registerDefault(t, reg, registryIface.ArcToken, tokenAddress, &eighteen)

	nonces, err := noncestore.NewMemoryStore(time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nonces.Close() })

	opts := testOptions()
	if tweak != nil {
		tweak(&opts)
	}
	session := &stubSession{snapshot: sessionIface.Snapshot{
		Status:        types.SessionReady,
		WalletAddress: &account.Address,
		Account:       account,
		Version:       4,
	}}
	hook := &recordHook{}
	svc := NewService(Options{
		Session:    session,
		Registry:   reg,
		NonceStore: nonces,
		Hook:       hook,
		Config:     gatewayconfig.NewWithOptions(opts),
	})
	return &fixture{chain: chain, account: account, registry: reg, nonces: nonces, hook: hook, session: session, svc: svc}
}

func registerDefault(t *testing.T, reg *registry.Registry, name string, addr common.Address, decimals *uint8) {
	t.Helper()
	parsed, err := registry.DefaultABI(name)
	require.NoError(t, err)
	require.NoError(t, reg.Register(&registryIface.Contract{Name: name, Address: addr, ABI: parsed, Decimals: decimals}))
}

func (f *fixture) contractABI(t *testing.T, name string) abi.ABI {
	t.Helper()
	c, err := f.registry.Contract(name)
	require.NoError(t, err)
	return c.ABI
}

// expectedCallData 钱包 execute 调用的期望编码
func (f *fixture) expectedCallData(t *testing.T, to common.Address, name, method string, args ...interface{}) []byte {
	t.Helper()
	contractABI := f.contractABI(t, name)
	inner, err := contractABI.Pack(method, args...)
	require.NoError(t, err)
	out, err := f.account.Builder.EncodeExecute(aaIface.Call{To: to, Value: new(big.Int), Data: inner})
	require.NoError(t, err)
	return out
}

func (f *fixture) sentHash(t *testing.T, op types.UserOperation) common.Hash {
	t.Helper()
	hash, err := op.Hash(f.chain.EntryPoint, big.NewInt(testChainID))
	require.NoError(t, err)
	return hash
}

func encodeErrorString(t *testing.T, reason string) []byte {
	t.Helper()
	stringTy, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	require.NoError(t, err)
	return append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)
}

func TestExecute_SessionNotReady(t *testing.T) {
	f := newFixture(t, nil)
	for _, status := range []types.SessionStatus{types.SessionIdle, types.SessionDerivingWallet, types.SessionError} {
		f.session.snapshot = sessionIface.Snapshot{Status: status}
		before := f.chain.Requests()

		receipt, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
		assert.Nil(t, receipt)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrSessionNotReady), "status %s", status)
		assert.Equal(t, before, f.chain.Requests(), "no network call while %s", status)
	}
	assert.Empty(t, f.hook.states())
}

func TestExecute_ClaimPayout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	receipt, err := f.svc.Execute(ctx, types.OperationClaimPayout, types.OperationParams{})
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, types.OperationClaimPayout, receipt.Kind)
	assert.Equal(t, f.account.Address, receipt.Wallet)
	assert.Equal(t, int64(0), receipt.Nonce.Int64())
	assert.NotEqual(t, common.Hash{}, receipt.TxHash)
	assert.NotZero(t, receipt.BlockNumber)
	assert.NotEmpty(t, receipt.OperationID)
	assert.Equal(t, []types.OperationState{
		types.OperationBuilding, types.OperationSubmitted, types.OperationIncluded,
	}, f.hook.states())
	assert.Equal(t, receipt.UserOpHash, f.hook.last().UserOpHash)
	assert.Equal(t, "0", f.hook.last().Nonce)

	sent := f.chain.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, f.expectedCallData(t, hubAddress, registryIface.ArcadeHub, "claimPayout"), sent[0].CallData)
	assert.NotEmpty(t, sent[0].InitCode, "first operation deploys the wallet")
	assert.Equal(t, receipt.UserOpHash, f.sentHash(t, sent[0]))

	// 钱包已部署，后续操作不再携带 initCode
	second, err := f.svc.Execute(ctx, types.OperationClaimPayout, types.OperationParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Nonce.Int64())
	sent = f.chain.Sent()
	require.Len(t, sent, 2)
	assert.Empty(t, sent[1].InitCode)
	assert.NotEqual(t, receipt.UserOpHash, second.UserOpHash)
}

func TestExecute_MintNFT(t *testing.T) {
	f := newFixture(t, nil)

	receipt, err := f.svc.Execute(context.Background(), types.OperationMintNFT, types.OperationParams{
		To:  player,
		URI: "ipfs://arcade/badge/1",
	})
	require.NoError(t, err)
	assert.True(t, receipt.Success)

	sent := f.chain.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t,
		f.expectedCallData(t, nftAddress, registryIface.ArcadeNFT, "mintNFT", player, "ipfs://arcade/badge/1"),
		sent[0].CallData)
}

func TestExecute_ApproveTokenExactAmount(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Execute(context.Background(), types.OperationApproveToken, types.OperationParams{
		Spender: spender,
		Amount:  "10.0",
	})
	require.NoError(t, err)

	want, ok := new(big.Int).SetString("10000000000000000000", 10)
	require.True(t, ok)
	sent := f.chain.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t,
		f.expectedCallData(t, tokenAddress, registryIface.ArcToken, "approve", spender, want),
		sent[0].CallData)
}

func TestExecute_ApproveTokenReadsDecimalsOnChain(t *testing.T) {
	f := newFixture(t, nil)
	registerDefault(t, f.registry, registryIface.ArcToken, tokenAddress, nil)
	tokenABI := f.contractABI(t, registryIface.ArcToken)

	var calls atomic.Int32
	f.chain.HandleCall(tokenAddress, func(input []byte) ([]byte, error) {
		// 第一次返回瞬时错误，验证提交前的重试
		if calls.Add(1) == 1 {
			return nil, &testutil.RPCError{Code: -32603, Message: "temporarily unavailable"}
		}
		return tokenABI.Methods["decimals"].Outputs.Pack(uint8(6))
	})

	params := types.OperationParams{Spender: spender, Amount: "1.5"}
	_, err := f.svc.Execute(context.Background(), types.OperationApproveToken, params)
	require.NoError(t, err)
	_, err = f.svc.Execute(context.Background(), types.OperationApproveToken, params)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load(), "decimals are cached after the first successful read")
	sent := f.chain.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t,
		f.expectedCallData(t, tokenAddress, registryIface.ArcToken, "approve", spender, big.NewInt(1_500_000)),
		sent[0].CallData)
}

func TestExecute_InvalidParams(t *testing.T) {
	six := uint8(6)
	tests := []struct {
		name   string
		kind   types.OperationKind
		params types.OperationParams
		setup  func(t *testing.T, f *fixture)
	}{
		{name: "mint to zero address", kind: types.OperationMintNFT, params: types.OperationParams{URI: "ipfs://x"}},
		{name: "mint without uri", kind: types.OperationMintNFT, params: types.OperationParams{To: player}},
		{name: "approve zero spender", kind: types.OperationApproveToken, params: types.OperationParams{Amount: "1"}},
		{name: "approve malformed amount", kind: types.OperationApproveToken, params: types.OperationParams{Spender: spender, Amount: "abc"}},
		{name: "approve negative amount", kind: types.OperationApproveToken, params: types.OperationParams{Spender: spender, Amount: "-1"}},
		{name: "approve empty amount", kind: types.OperationApproveToken, params: types.OperationParams{Spender: spender}},
		{
			name:   "approve too precise",
			kind:   types.OperationApproveToken,
			params: types.OperationParams{Spender: spender, Amount: "0.0000001"},
			setup: func(t *testing.T, f *fixture) {
				registerDefault(t, f.registry, registryIface.ArcToken, tokenAddress, &six)
			},
		},
		{name: "unknown kind", kind: types.OperationKind("burn_everything")},
		{
			name: "contract not registered",
			kind: types.OperationClaimPayout,
			setup: func(t *testing.T, f *fixture) {
				reg, err := registry.Load(nil, nil)
				require.NoError(t, err)
				f.svc.registry = reg
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tc.setup != nil {
				tc.setup(t, f)
			}
			_, err := f.svc.Execute(context.Background(), tc.kind, tc.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidParams), "got %v", err)
			assert.Empty(t, f.chain.Sent())
			assert.Equal(t, []types.OperationState{types.OperationBuilding, types.OperationFailed}, f.hook.states())
		})
	}
}

func TestExecute_SimulationRevertDecodesCustomError(t *testing.T) {
	f := newFixture(t, nil)
	nftABI := f.contractABI(t, registryIface.ArcadeNFT)

	limitErr := nftABI.Errors["MintLimitReached"]
	payload, err := limitErr.Inputs.Pack(player, big.NewInt(3))
	require.NoError(t, err)
	f.chain.RevertSelector(nftABI.Methods["mintNFT"].ID, testutil.Revert{
		Data: append(common.CopyBytes(limitErr.ID[:4]), payload...),
	})

	_, err = f.svc.Execute(context.Background(), types.OperationMintNFT, types.OperationParams{To: player, URI: "ipfs://x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrContractCall))
	we := types.AsWalletError(err)
	require.NotNil(t, we)
	assert.Equal(t, types.CodeReverted, we.Code)
	assert.Equal(t, "MintLimitReached("+player.Hex()+", 3)", we.RevertReason)

	assert.Empty(t, f.chain.Sent(), "nothing is submitted when simulation reverts")
	_, ok, err := f.nonces.Next(context.Background(), f.account.Address)
	require.NoError(t, err)
	assert.False(t, ok)

	// 会话不受影响，下一次操作仍可执行
	assert.True(t, f.session.GetSession().Ready())
	_, err = f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
	assert.NoError(t, err)
}

func TestExecute_ReceiptRevert(t *testing.T) {
	f := newFixture(t, nil)
	hubABI := f.contractABI(t, registryIface.ArcadeHub)
	f.chain.RevertSelector(hubABI.Methods["claimPayout"].ID, testutil.Revert{
		Data:      encodeErrorString(t, "payouts paused for season"),
		AtReceipt: true,
	})

	_, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrContractCall))
	assert.Equal(t, "payouts paused for season", types.AsWalletError(err).RevertReason)
	assert.Equal(t, []types.OperationState{
		types.OperationBuilding, types.OperationSubmitted, types.OperationFailed,
	}, f.hook.states())
}

func TestExecute_InclusionTimeout(t *testing.T) {
	f := newFixture(t, func(o *gatewayconfig.GatewayOptions) {
		o.InclusionTimeout = 50 * time.Millisecond
	})
	f.chain.SetAutoInclude(false)

	_, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInclusionTimeout))

	sent := f.chain.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, f.sentHash(t, sent[0]).Hex(), types.AsWalletError(err).UserOpHash)

	// 已提交：nonce 缓存前进
	next, ok, err := f.nonces.Next(context.Background(), f.account.Address)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), next.Int64())
}

func TestExecute_CancelWhileAwaitingInclusion(t *testing.T) {
	f := newFixture(t, nil)
	f.chain.SetAutoInclude(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.hook.on = func(e metrics.OperationEvent) {
		if e.State == types.OperationSubmitted {
			cancel()
		}
	}

	_, err := f.svc.Execute(ctx, types.OperationClaimPayout, types.OperationParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInclusionTimeout))
	assert.NotEmpty(t, types.AsWalletError(err).UserOpHash)
}

func TestExecute_SequentialNoncesWhilePending(t *testing.T) {
	f := newFixture(t, nil)
	f.chain.SetAutoInclude(false)

	type result struct {
		receipt *types.Receipt
		err     error
	}
	results := make(chan result, 2)
	run := func() {
		r, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
		results <- result{r, err}
	}

	go run()
	require.Eventually(t, func() bool { return len(f.chain.Sent()) == 1 }, 2*time.Second, 5*time.Millisecond)
	go run()
	require.Eventually(t, func() bool { return len(f.chain.Sent()) == 2 }, 2*time.Second, 5*time.Millisecond)

	sent := f.chain.Sent()
	assert.Equal(t, int64(0), sent[0].Nonce.Int64())
	assert.Equal(t, int64(1), sent[1].Nonce.Int64())
	assert.NotEmpty(t, sent[0].InitCode)
	assert.Empty(t, sent[1].InitCode)

	for _, op := range sent {
		require.NoError(t, f.chain.Include(f.sentHash(t, op)))
	}
	nonces := map[int64]bool{}
	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		nonces[r.receipt.Nonce.Int64()] = true
	}
	assert.Equal(t, map[int64]bool{0: true, 1: true}, nonces)
}

func TestExecute_ConcurrentSameWallet(t *testing.T) {
	f := newFixture(t, nil)

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	seen := map[int64]bool{}
	for _, op := range f.chain.Sent() {
		seen[op.Nonce.Int64()] = true
	}
	assert.Len(t, seen, n, "every operation gets a distinct nonce")
}

func TestExecute_SendFailureResetsNonceStore(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// 过期的本地记录
	require.NoError(t, f.nonces.Commit(ctx, f.account.Address, big.NewInt(7)))
	f.chain.FailSend(&testutil.RPCError{Code: -32602, Message: "invalid nonce 7"})

	_, err := f.svc.Execute(ctx, types.OperationClaimPayout, types.OperationParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNetwork))
	assert.False(t, types.IsTransient(err))

	_, ok, err := f.nonces.Next(ctx, f.account.Address)
	require.NoError(t, err)
	assert.False(t, ok, "a failed submission clears the local nonce")

	f.chain.FailSend(nil)
	receipt, err := f.svc.Execute(ctx, types.OperationClaimPayout, types.OperationParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), receipt.Nonce.Int64())
}

func TestExecute_SendFailureKeepsPendingNonce(t *testing.T) {
	f := newFixture(t, nil)
	f.chain.SetAutoInclude(false)

	pending := make(chan error, 1)
	go func() {
		_, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
		pending <- err
	}()
	require.Eventually(t, func() bool { return len(f.chain.Sent()) == 1 }, 2*time.Second, 5*time.Millisecond)

	// 第二个操作提交失败，nonce 1 未被占用
	f.chain.FailSend(&testutil.RPCError{Code: -32603, Message: "bundler busy"})
	_, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
	require.Error(t, err)
	assert.True(t, types.IsTransient(err))
	assert.Equal(t, "1", f.hook.last().Nonce)

	f.chain.FailSend(nil)
	third := make(chan error, 1)
	go func() {
		_, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
		third <- err
	}()
	require.Eventually(t, func() bool { return len(f.chain.Sent()) == 2 }, 2*time.Second, 5*time.Millisecond)

	sent := f.chain.Sent()
	assert.Equal(t, int64(0), sent[0].Nonce.Int64())
	assert.Equal(t, int64(1), sent[1].Nonce.Int64())

	for _, op := range sent {
		require.NoError(t, f.chain.Include(f.sentHash(t, op)))
	}
	require.NoError(t, <-pending)
	require.NoError(t, <-third)
}

func TestExecute_AfterReloginWithSameKey(t *testing.T) {
	chain := testutil.NewChain(testChainID)
	t.Cleanup(chain.Stop)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainOpts := chainconfig.New(nil).GetOptions()
	chainOpts.ChainID = testChainID
	resolver := aa.NewResolver(aa.Options{
		Chain: chainOpts,
		Dial: func(ctx context.Context) (aaIface.Client, error) {
			return aa.NewClient(chain.RPC(), nil, aa.ClientOptions{EntryPoint: chain.EntryPoint, FeeMultiplier: 100}), nil
		},
		ProbeBackoff: time.Millisecond,
	})
	t.Cleanup(resolver.Close)

	reg, err := registry.Load(nil, nil)
	require.NoError(t, err)
	registerDefault(t, reg, registryIface.ArcadeHub, hubAddress, nil)

	session := &stubSession{}
	svc := NewService(Options{
		Session:  session,
		Registry: reg,
		Config:   gatewayconfig.NewWithOptions(testOptions()),
	})
	login := func(h *connHandle) {
		account, err := resolver.Resolve(context.Background(), bridge.NewLocalSigner(key, h))
		require.NoError(t, err)
		session.mu.Lock()
		session.snapshot = sessionIface.Snapshot{
			Status:        types.SessionReady,
			WalletAddress: &account.Address,
			Account:       account,
		}
		session.mu.Unlock()
	}

	first := &connHandle{}
	login(first)
	_, err = svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
	require.NoError(t, err)

	// 登出断开旧句柄，随后用同一私钥重新登录
	first.disconnected.Store(true)
	login(&connHandle{})
	receipt, err := svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), receipt.Nonce.Int64())
}

// connHandle 可断开的提供者句柄
type connHandle struct{ disconnected atomic.Bool }

func (h *connHandle) Connected() bool { return !h.disconnected.Load() }

func TestExecute_SendIsNotRetried(t *testing.T) {
	f := newFixture(t, nil)
	f.chain.FailSend(&testutil.RPCError{Code: -32603, Message: "bundler busy"})

	_, err := f.svc.Execute(context.Background(), types.OperationClaimPayout, types.OperationParams{})
	require.Error(t, err)
	assert.True(t, types.IsTransient(err))
	assert.Empty(t, f.chain.Sent())
	assert.Equal(t, types.OperationFailed, f.hook.last().State)
	assert.Equal(t, "0", f.hook.last().Nonce)
}

func TestTokenBalance(t *testing.T) {
	f := newFixture(t, nil)
	registerDefault(t, f.registry, registryIface.ArcToken, tokenAddress, nil)
	tokenABI := f.contractABI(t, registryIface.ArcToken)

	f.chain.HandleCall(tokenAddress, func(input []byte) ([]byte, error) {
		method, err := tokenABI.MethodById(input[:4])
		if err != nil {
			return nil, err
		}
		switch method.Name {
		case "decimals":
			return method.Outputs.Pack(uint8(6))
		case "balanceOf":
			return method.Outputs.Pack(big.NewInt(2_500_000))
		}
		return nil, errors.New("unexpected call")
	})

	balance, err := f.svc.TokenBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.5", balance.StringTrimmed())
	assert.Equal(t, uint8(6), balance.Decimals())

	f.session.snapshot = sessionIface.Snapshot{Status: types.SessionIdle}
	_, err = f.svc.TokenBalance(context.Background())
	assert.True(t, errors.Is(err, types.ErrSessionNotReady))
}
