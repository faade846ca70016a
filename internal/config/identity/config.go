// Package identity 提供开发用身份提供者配置
package identity

import (
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// IdentityOptions 身份提供者配置选项
type IdentityOptions struct {
	Provider       string `json:"provider"`        // 目前仅支持 mnemonic
	DerivationPath string `json:"derivation_path"` // BIP-44 派生路径
	SessionFile    string `json:"session_file"`    // 会话恢复标记文件
}

// Config 身份提供者配置实现
type Config struct {
	options *IdentityOptions
}

// New 创建身份提供者配置
func New(userConfig *types.UserIdentityConfig) *Config {
	options := &IdentityOptions{
		Provider:       defaultProvider,
		DerivationPath: defaultDerivationPath,
		SessionFile:    defaultSessionFile,
	}

	if userConfig != nil {
		if userConfig.Provider != nil {
			options.Provider = *userConfig.Provider
		}
		if userConfig.DerivationPath != nil {
			options.DerivationPath = *userConfig.DerivationPath
		}
		if userConfig.SessionFile != nil {
			options.SessionFile = *userConfig.SessionFile
		}
	}

	return &Config{options: options}
}

// GetOptions 获取配置选项
func (c *Config) GetOptions() *IdentityOptions {
	return c.options
}
