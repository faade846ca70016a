// Package registry 提供合约注册表配置
package registry

import (
	"strings"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// ContractOptions 单个合约的登记配置
type ContractOptions struct {
	Address  string `json:"address"`
	ABI      string `json:"abi,omitempty"`      // 内联 ABI JSON
	ABIFile  string `json:"abi_file,omitempty"` // ABI 文件路径
	Decimals *uint8 `json:"decimals,omitempty"` // 代币精度
}

// RegistryOptions 合约注册表配置选项
type RegistryOptions struct {
	Contracts map[string]*ContractOptions `json:"contracts"`
}

// Config 合约注册表配置实现
type Config struct {
	options *RegistryOptions
}

// New 创建合约注册表配置；未配置 ABI 的合约使用内置 ABI
func New(userConfig *types.UserRegistryConfig) *Config {
	options := &RegistryOptions{Contracts: make(map[string]*ContractOptions)}

	if userConfig != nil {
		for name, c := range userConfig.Contracts {
			if c == nil {
				continue
			}
			opt := &ContractOptions{Decimals: c.Decimals}
			if c.Address != nil {
				opt.Address = strings.TrimSpace(*c.Address)
			}
			if c.ABI != nil {
				opt.ABI = *c.ABI
			}
			if c.ABIFile != nil {
				opt.ABIFile = *c.ABIFile
			}
			options.Contracts[name] = opt
		}
	}

	return &Config{options: options}
}

// GetOptions 获取配置选项
func (c *Config) GetOptions() *RegistryOptions {
	return c.options
}
