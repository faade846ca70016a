package config

import (
	"path/filepath"

	"github.com/cosmasken/arcadehub-sub003/internal/config/account"
	"github.com/cosmasken/arcadehub-sub003/internal/config/chain"
	"github.com/cosmasken/arcadehub-sub003/internal/config/clock"
	"github.com/cosmasken/arcadehub-sub003/internal/config/event"
	"github.com/cosmasken/arcadehub-sub003/internal/config/gateway"
	"github.com/cosmasken/arcadehub-sub003/internal/config/identity"
	"github.com/cosmasken/arcadehub-sub003/internal/config/log"
	"github.com/cosmasken/arcadehub-sub003/internal/config/noncestore"
	"github.com/cosmasken/arcadehub-sub003/internal/config/registry"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

const (
	defaultDataDir     = "./data"
	defaultEnvironment = "dev"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{
		appConfig: appConfig,
	}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	options := log.New(p.appConfig.Log).GetOptions()

	// 相对路径的日志文件放到数据目录下
	if path := options.FilePath; path != "stdout" && path != "stderr" && !filepath.IsAbs(path) {
		options.FilePath = filepath.Join(p.GetDataDir(), "logs", path)
	}
	return options
}

// GetChain 获取链接入配置
func (p *Provider) GetChain() *chain.ChainOptions {
	return chain.New(p.appConfig.Chain).GetOptions()
}

// GetAccount 获取钱包部署参数
func (p *Provider) GetAccount() *account.AccountOptions {
	return account.New(p.appConfig.Account).GetOptions()
}

// GetGateway 获取合约网关配置
func (p *Provider) GetGateway() *gateway.GatewayOptions {
	return gateway.New(p.appConfig.Gateway).GetOptions()
}

// GetRegistry 获取合约注册表配置
func (p *Provider) GetRegistry() *registry.RegistryOptions {
	return registry.New(p.appConfig.Registry).GetOptions()
}

// GetNonceStore 获取 nonce 缓存配置
func (p *Provider) GetNonceStore() *noncestore.NonceStoreOptions {
	return noncestore.New(p.appConfig.NonceStore).GetOptions()
}

// GetIdentity 获取身份提供者配置
func (p *Provider) GetIdentity() *identity.IdentityOptions {
	options := identity.New(p.appConfig.Identity).GetOptions()
	if options.SessionFile != "" && !filepath.IsAbs(options.SessionFile) {
		options.SessionFile = filepath.Join(p.GetDataDir(), options.SessionFile)
	}
	return options
}

// GetEvent 获取事件配置
func (p *Provider) GetEvent() *event.EventOptions {
	return event.New(p.appConfig.Event).GetOptions()
}

// GetClock 获取时间源配置
func (p *Provider) GetClock() *clock.ClockOptions {
	return clock.New(p.appConfig.Clock).GetOptions()
}

// GetDataDir 获取数据目录
func (p *Provider) GetDataDir() string {
	if p.appConfig.DataDir != nil && *p.appConfig.DataDir != "" {
		return *p.appConfig.DataDir
	}
	return defaultDataDir
}

// GetEnvironment 获取运行环境
func (p *Provider) GetEnvironment() string {
	if p.appConfig.Environment != nil && *p.appConfig.Environment != "" {
		return *p.appConfig.Environment
	}
	return defaultEnvironment
}
