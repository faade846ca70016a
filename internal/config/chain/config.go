// Package chain 提供链接入（节点 RPC 与 Bundler）配置
package chain

import (
	"time"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// ChainOptions 链接入配置选项
type ChainOptions struct {
	RPCURL         string        `json:"rpc_url"`            // 节点 JSON-RPC 地址
	BundlerURL     string        `json:"bundler_url"`        // Bundler JSON-RPC 地址
	ChainID        uint64        `json:"chain_id"`           // 期望的链 ID
	DialTimeout    time.Duration `json:"dial_timeout"`       // 拨号超时
	RequestTimeout time.Duration `json:"request_timeout"`    // 单次请求超时
	ProbeRetries   int           `json:"probe_retries"`      // 链 ID 探测重试次数
	FeeMultiplier  uint64        `json:"fee_multiplier_pct"` // maxFeePerGas = gasPrice * pct / 100
}

// Config 链接入配置实现
type Config struct {
	options *ChainOptions
}

// New 创建链接入配置
func New(userConfig *types.UserChainConfig) *Config {
	options := &ChainOptions{
		RPCURL:         defaultRPCURL,
		ChainID:        defaultChainID,
		DialTimeout:    defaultDialTimeout,
		RequestTimeout: defaultRequestTimeout,
		ProbeRetries:   defaultProbeRetries,
		FeeMultiplier:  defaultFeeMultiplier,
	}

	if userConfig != nil {
		if userConfig.RPCURL != nil {
			options.RPCURL = *userConfig.RPCURL
		}
		if userConfig.BundlerURL != nil {
			options.BundlerURL = *userConfig.BundlerURL
		}
		if userConfig.ChainID != nil {
			options.ChainID = *userConfig.ChainID
		}
		if userConfig.DialTimeout != nil {
			if d, err := time.ParseDuration(*userConfig.DialTimeout); err == nil {
				options.DialTimeout = d
			}
		}
		if userConfig.RequestTimeout != nil {
			if d, err := time.ParseDuration(*userConfig.RequestTimeout); err == nil {
				options.RequestTimeout = d
			}
		}
		if userConfig.ProbeRetries != nil && *userConfig.ProbeRetries >= 0 {
			options.ProbeRetries = *userConfig.ProbeRetries
		}
		if userConfig.FeeMultiplier != nil && *userConfig.FeeMultiplier >= 100 {
			options.FeeMultiplier = *userConfig.FeeMultiplier
		}
	}

	// Bundler 未单独配置时复用节点地址
	if options.BundlerURL == "" {
		options.BundlerURL = options.RPCURL
	}

	return &Config{options: options}
}

// GetOptions 获取配置选项
func (c *Config) GetOptions() *ChainOptions {
	return c.options
}
