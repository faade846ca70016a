package session

import (
	"go.uber.org/fx"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	sessionIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/session"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
)

// ModuleInput 会话模块依赖
type ModuleInput struct {
	fx.In

	Provider identity.Provider
	Bridge   wallet.Bridge
	Resolver aa.Resolver
	Hook     metrics.Hook `optional:"true"`
	Clock    clock.Clock  `optional:"true"`
	Logger   log.Logger   `optional:"true"`
}

// ModuleOutput 会话模块输出
type ModuleOutput struct {
	fx.Out

	Manager sessionIface.Manager
	Reader  sessionIface.Reader
}

// Module 返回会话模块
func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建进程内唯一的会话管理器
func ProvideServices(input ModuleInput) ModuleOutput {
	var logger log.Logger
	if input.Logger != nil {
		logger = input.Logger.With("module", "session")
	}
	m := NewManager(Options{
		Provider: input.Provider,
		Bridge:   input.Bridge,
		Resolver: input.Resolver,
		Hook:     input.Hook,
		Clock:    input.Clock,
		Logger:   logger,
	})
	return ModuleOutput{Manager: m, Reader: m}
}
