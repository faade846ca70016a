package mnemonic

import (
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
)

// ProviderName 配置中的提供者名称
const ProviderName = "mnemonic"

// EnvPassphrase BIP-39 密码
const EnvPassphrase = "ARCADE_MNEMONIC_PASSPHRASE"

// ModuleInput 身份提供者模块依赖
type ModuleInput struct {
	fx.In

	Provider config.Provider
	Clock    clock.Clock `optional:"true"`
	Logger   log.Logger  `optional:"true"`
}

// Module 返回助记词身份提供者模块
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideProvider),
	)
}

// ProvideProvider 交互登录先读环境变量再提示终端；静默恢复只读环境变量
func ProvideProvider(input ModuleInput) (identity.Provider, error) {
	options := input.Provider.GetIdentity()
	if options.Provider != ProviderName {
		return nil, fmt.Errorf("unsupported identity provider %q", options.Provider)
	}
	var logger log.Logger
	if input.Logger != nil {
		logger = input.Logger.With("module", "identity")
	}
	return NewProvider(Options{
		Config:      options,
		DataDir:     input.Provider.GetDataDir(),
		Interactive: FirstOf(EnvSource(EnvMnemonic), TerminalSource(os.Stdin, os.Stderr)),
		Silent:      EnvSource(EnvMnemonic),
		Passphrase:  os.Getenv(EnvPassphrase),
		Clock:       input.Clock,
		Logger:      logger,
	}), nil
}
