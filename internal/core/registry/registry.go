// Package registry 实现合约注册表
//
// 逻辑名称（arcadeHub、arcadeNFT、arcToken）到 {地址, ABI, 精度} 的映射来自配置；
// 内置的三个合约未配置 ABI 时使用随二进制嵌入的默认 ABI。
// 地址未配置的合约不登记，调用时才报错，不影响会话与其他操作。
package registry

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	registryconfig "github.com/cosmasken/arcadehub-sub003/internal/config/registry"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	registryIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/registry"
)

//go:embed abi/*.json
var defaultABIs embed.FS

// defaultABIFiles 内置合约的默认 ABI
var defaultABIFiles = map[string]string{
	registryIface.ArcadeHub: "abi/arcade_hub.json",
	registryIface.ArcadeNFT: "abi/arcade_nft.json",
	registryIface.ArcToken:  "abi/arc_token.json",
}

// Registry 合约注册表
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]*registryIface.Contract
}

// DefaultABI 返回内置合约的默认 ABI
func DefaultABI(name string) (abi.ABI, error) {
	file, ok := defaultABIFiles[name]
	if !ok {
		return abi.ABI{}, fmt.Errorf("no built-in ABI for contract %q", name)
	}
	data, err := defaultABIs.ReadFile(file)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read built-in ABI %s: %w", file, err)
	}
	return abi.JSON(strings.NewReader(string(data)))
}

// Load 根据配置构建注册表
func Load(options *registryconfig.RegistryOptions, logger log.Logger) (*Registry, error) {
	r := &Registry{contracts: make(map[string]*registryIface.Contract)}
	if options == nil {
		return r, nil
	}

	names := make([]string, 0, len(options.Contracts))
	for name := range options.Contracts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		opt := options.Contracts[name]
		if opt == nil || opt.Address == "" {
			if logger != nil {
				logger.Warnf("合约 %s 未配置地址，跳过登记", name)
			}
			continue
		}
		c, err := buildContract(name, opt)
		if err != nil {
			return nil, err
		}
		r.contracts[name] = c
		if logger != nil {
			logger.Debugf("登记合约: %s -> %s", name, c.Address.Hex())
		}
	}
	return r, nil
}

func buildContract(name string, opt *registryconfig.ContractOptions) (*registryIface.Contract, error) {
	if !common.IsHexAddress(opt.Address) {
		return nil, fmt.Errorf("contract %s: invalid address %q", name, opt.Address)
	}
	addr := common.HexToAddress(opt.Address)
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("contract %s: address must not be zero", name)
	}

	var (
		parsed abi.ABI
		err    error
	)
	switch {
	case opt.ABI != "":
		parsed, err = abi.JSON(strings.NewReader(opt.ABI))
	case opt.ABIFile != "":
		var data []byte
		data, err = os.ReadFile(opt.ABIFile)
		if err == nil {
			parsed, err = abi.JSON(strings.NewReader(string(data)))
		}
	default:
		parsed, err = DefaultABI(name)
	}
	if err != nil {
		return nil, fmt.Errorf("contract %s: load ABI: %w", name, err)
	}

	c := &registryIface.Contract{Name: name, Address: addr, ABI: parsed}
	if opt.Decimals != nil {
		d := *opt.Decimals
		c.Decimals = &d
	}
	return c, nil
}

// Register 登记或替换合约
func (r *Registry) Register(c *registryIface.Contract) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("contract name is required")
	}
	if c.Address == (common.Address{}) {
		return fmt.Errorf("contract %s: address must not be zero", c.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[c.Name] = c
	return nil
}

// Contract 实现 registry.Registry
func (r *Registry) Contract(name string) (*registryIface.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[name]
	if !ok {
		return nil, fmt.Errorf("contract %q is not registered", name)
	}
	return c, nil
}

// Names 实现 registry.Registry
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.contracts))
	for name := range r.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ registryIface.Registry = (*Registry)(nil)
