// Package config provides configuration provider interfaces.
package config

import (
	accountconfig "github.com/cosmasken/arcadehub-sub003/internal/config/account"
	chainconfig "github.com/cosmasken/arcadehub-sub003/internal/config/chain"
	clockconfig "github.com/cosmasken/arcadehub-sub003/internal/config/clock"
	eventconfig "github.com/cosmasken/arcadehub-sub003/internal/config/event"
	gatewayconfig "github.com/cosmasken/arcadehub-sub003/internal/config/gateway"
	identityconfig "github.com/cosmasken/arcadehub-sub003/internal/config/identity"
	logconfig "github.com/cosmasken/arcadehub-sub003/internal/config/log"
	noncestoreconfig "github.com/cosmasken/arcadehub-sub003/internal/config/noncestore"
	registryconfig "github.com/cosmasken/arcadehub-sub003/internal/config/registry"
)

// Provider 配置提供者接口
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetChain 获取链接入配置（RPC、Bundler、链 ID）
	GetChain() *chainconfig.ChainOptions

	// GetAccount 获取智能合约钱包部署参数
	GetAccount() *accountconfig.AccountOptions

	// GetGateway 获取合约网关配置
	GetGateway() *gatewayconfig.GatewayOptions

	// GetRegistry 获取合约注册表配置
	GetRegistry() *registryconfig.RegistryOptions

	// GetNonceStore 获取 nonce 缓存配置
	GetNonceStore() *noncestoreconfig.NonceStoreOptions

	// GetIdentity 获取开发用身份提供者配置
	GetIdentity() *identityconfig.IdentityOptions

	// GetEvent 获取事件配置
	GetEvent() *eventconfig.EventOptions

	// GetClock 获取时间源配置
	GetClock() *clockconfig.ClockOptions

	// GetDataDir 获取数据目录
	GetDataDir() string

	// GetEnvironment 获取运行环境：dev | test | prod，未配置时为 dev
	GetEnvironment() string
}
