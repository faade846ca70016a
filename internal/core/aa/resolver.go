// Package aa 实现账户抽象（ERC-4337）解析器
//
// 解析器根据签名器地址与固定的部署参数（工厂、盐值）计算确定性的智能合约钱包地址，
// 并准备提交用户操作所需的 JSON-RPC 客户端与构建器。解析过程只读，从不部署钱包；
// 未部署的钱包在首个用户操作中通过 initCode 懒部署。
package aa

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	accountconfig "github.com/cosmasken/arcadehub-sub003/internal/config/account"
	chainconfig "github.com/cosmasken/arcadehub-sub003/internal/config/chain"
	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// DialFunc 建立 JSON-RPC 客户端
type DialFunc func(ctx context.Context) (aaIface.Client, error)

// deployment 已校验的部署参数
type deployment struct {
	entryPoint     common.Address
	factory        common.Address
	salt           *big.Int
	mode           string
	implementation common.Address
	proxyCode      []byte
	paymaster      paymasterSettings
}

// Resolver 账户抽象解析器
type Resolver struct {
	deploy    *deployment
	configErr error
	chainID   *big.Int
	retries   int
	backoff   time.Duration
	dial      DialFunc
	logger    log.Logger

	mu     sync.Mutex
	client aaIface.Client
	cache  map[common.Address]*resolved
}

// resolved 按所有者缓存的推导结果
//
// 地址与 initCode 只取决于所有者与部署参数；账户中的构建器绑定到具体签名器，
// 所有者重新登录得到新签名器时重建账户，地址沿用缓存。
type resolved struct {
	address  common.Address
	initCode []byte
	signer   wallet.Signer
	account  *aaIface.Account
}

// Options 解析器参数
type Options struct {
	Account      *accountconfig.AccountOptions
	Chain        *chainconfig.ChainOptions
	Dial         DialFunc      // 为 nil 时按 Chain 中的地址拨号
	ProbeBackoff time.Duration // 链 ID 探测重试间隔
	Logger       log.Logger
}

// NewResolver 创建解析器
//
// 配置错误不会在此返回，而是在 Resolve 时以 WalletDerivationError(invalid_config) 报告，
// 使登录流程按统一的方式失败。
func NewResolver(opts Options) *Resolver {
	chain := opts.Chain
	if chain == nil {
		chain = chainconfig.New(nil).GetOptions()
	}
	r := &Resolver{
		chainID: new(big.Int).SetUint64(chain.ChainID),
		retries: chain.ProbeRetries,
		backoff: opts.ProbeBackoff,
		dial:    opts.Dial,
		logger:  opts.Logger,
		cache:   make(map[common.Address]*resolved),
	}
	if r.backoff <= 0 {
		r.backoff = 500 * time.Millisecond
	}
	r.deploy, r.configErr = parseDeployment(opts.Account)
	if r.dial == nil && r.configErr == nil {
		clientOpts := ClientOptions{
			EntryPoint:     r.deploy.entryPoint,
			RequestTimeout: chain.RequestTimeout,
			FeeMultiplier:  chain.FeeMultiplier,
		}
		r.dial = func(ctx context.Context) (aaIface.Client, error) {
			if chain.DialTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, chain.DialTimeout)
				defer cancel()
			}
			return Dial(ctx, chain.RPCURL, chain.BundlerURL, clientOpts)
		}
	}
	return r
}

// parseDeployment 校验部署参数
func parseDeployment(opts *accountconfig.AccountOptions) (*deployment, error) {
	if opts == nil {
		opts = accountconfig.New(nil).GetOptions()
	}
	d := &deployment{mode: strings.ToLower(strings.TrimSpace(opts.AddressMode))}

	var err error
	if d.entryPoint, err = parseAddress("entry_point", opts.EntryPoint); err != nil {
		return nil, err
	}
	if d.factory, err = parseAddress("factory", opts.Factory); err != nil {
		return nil, err
	}

	salt, ok := math.ParseBig256(strings.TrimSpace(opts.Salt))
	if !ok || salt.Sign() < 0 {
		return nil, fmt.Errorf("salt %q is not a uint256", opts.Salt)
	}
	d.salt = salt

	switch d.mode {
	case accountconfig.AddressModeFactory:
	case accountconfig.AddressModeCreate2:
		if d.implementation, err = parseAddress("account_implementation", opts.AccountImplementation); err != nil {
			return nil, err
		}
		code, err := hexutil.Decode(strings.TrimSpace(opts.ProxyCreationCode))
		if err != nil || len(code) == 0 {
			return nil, fmt.Errorf("proxy_creation_code must be non-empty 0x-prefixed hex")
		}
		d.proxyCode = code
	default:
		return nil, fmt.Errorf("unknown address_mode %q", opts.AddressMode)
	}

	d.paymaster.mode = strings.ToLower(strings.TrimSpace(opts.PaymasterMode))
	switch d.paymaster.mode {
	case "", accountconfig.PaymasterNone:
		d.paymaster.mode = accountconfig.PaymasterNone
	case accountconfig.PaymasterStatic:
		pm, err := hexutil.Decode(strings.TrimSpace(opts.PaymasterAndData))
		if err != nil || len(pm) < common.AddressLength {
			return nil, fmt.Errorf("paymaster_and_data must start with a 20-byte paymaster address")
		}
		d.paymaster.static = pm
	case accountconfig.PaymasterSponsor:
		d.paymaster.policyID = opts.SponsorPolicyID
	default:
		return nil, fmt.Errorf("unknown paymaster_mode %q", opts.PaymasterMode)
	}
	return d, nil
}

func parseAddress(field, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s %q is not an address", field, value)
	}
	addr := common.HexToAddress(value)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s must not be the zero address", field)
	}
	return addr, nil
}

// Resolve 实现 aa.Resolver
func (r *Resolver) Resolve(ctx context.Context, signer wallet.Signer) (*aaIface.Account, error) {
	if r.configErr != nil {
		return nil, types.NewWalletDerivationError(types.CodeInvalidConfig, "invalid account configuration", r.configErr)
	}
	if signer == nil {
		return nil, types.NewWalletDerivationError(types.CodeInvalidConfig, "signer is required", nil)
	}
	owner := signer.Address()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cache[owner]
	if ok && sameSigner(entry.signer, signer) {
		return entry.account, nil
	}

	client, err := r.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	if !ok {
		address, err := r.computeAddress(ctx, client, owner)
		if err != nil {
			return nil, err
		}
		initCode, err := InitCode(r.deploy.factory, owner, r.deploy.salt)
		if err != nil {
			return nil, types.NewWalletDerivationError(types.CodeInvalidConfig, "cannot encode initCode", err)
		}
		entry = &resolved{address: address, initCode: initCode}
	}
	address := entry.address

	code, err := client.CodeAt(ctx, address)
	if err != nil {
		return nil, types.NewWalletDerivationError(types.CodeUnreachable, "cannot read wallet code", err)
	}

	acct := &aaIface.Account{
		Owner:    owner,
		Address:  address,
		Deployed: len(code) > 0,
		Client:   client,
		Builder: &builder{
			client:    client,
			signer:    signer,
			sender:    address,
			chainID:   new(big.Int).Set(r.chainID),
			initCode:  entry.initCode,
			paymaster: r.deploy.paymaster,
		},
	}
	entry.signer = signer
	entry.account = acct
	r.cache[owner] = entry

	if r.logger != nil {
		r.logger.Infof("智能合约钱包已解析: owner=%s, wallet=%s, deployed=%v, mode=%s",
			owner.Hex(), address.Hex(), acct.Deployed, r.deploy.mode)
	}
	return acct, nil
}

// computeAddress 按配置的模式计算反事实地址
func (r *Resolver) computeAddress(ctx context.Context, client aaIface.Client, owner common.Address) (common.Address, error) {
	switch r.deploy.mode {
	case accountconfig.AddressModeCreate2:
		addr, err := Create2Address(r.deploy.factory, r.deploy.salt, r.deploy.proxyCode, r.deploy.implementation, owner)
		if err != nil {
			return common.Address{}, types.NewWalletDerivationError(types.CodeInvalidConfig, "cannot compute create2 address", err)
		}
		return addr, nil
	default:
		addr, err := FactoryAddress(ctx, client, r.deploy.factory, owner, r.deploy.salt)
		if err != nil {
			if types.KindOf(err) == types.ErrKindNetwork {
				return common.Address{}, types.NewWalletDerivationError(types.CodeUnreachable, "factory getAddress failed", err)
			}
			return common.Address{}, types.NewWalletDerivationError(types.CodeInvalidConfig, "factory getAddress failed", err)
		}
		return addr, nil
	}
}

// ensureClient 首次使用时拨号并校验链 ID；调用方持有 r.mu
func (r *Resolver) ensureClient(ctx context.Context) (aaIface.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	client, err := r.dial(ctx)
	if err != nil {
		return nil, types.NewWalletDerivationError(types.CodeUnreachable, "cannot connect to rpc endpoint", err)
	}

	var chainID *big.Int
	for attempt := 0; ; attempt++ {
		chainID, err = client.ChainID(ctx)
		if err == nil || !types.IsTransient(err) || attempt >= r.retries {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(r.backoff):
			continue
		}
		break
	}
	if err != nil {
		client.Close()
		return nil, types.NewWalletDerivationError(types.CodeUnreachable, "rpc endpoint did not report a chain id", err)
	}
	if chainID.Cmp(r.chainID) != 0 {
		client.Close()
		return nil, types.NewWalletDerivationError(types.CodeChainMismatch,
			fmt.Sprintf("rpc endpoint is on chain %s, expected %s", chainID, r.chainID), nil)
	}

	r.client = client
	return client, nil
}

// Client 已建立的客户端，尚未拨号时为 nil
func (r *Resolver) Client() aaIface.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client
}

// Close 关闭底层连接并清空缓存
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		r.client.Close()
		r.client = nil
	}
	r.cache = make(map[common.Address]*resolved)
}

// sameSigner 判断是否为同一个签名器实例，不可比较的类型视为不同
func sameSigner(a, b wallet.Signer) bool {
	if a == nil || b == nil {
		return false
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

var _ aaIface.Resolver = (*Resolver)(nil)
