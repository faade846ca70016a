package registry

import (
	"go.uber.org/fx"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	registryIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/registry"
)

// ModuleInput 注册表模块依赖
type ModuleInput struct {
	fx.In

	Provider config.Provider
	Logger   log.Logger `optional:"true"`
}

// Module 返回合约注册表模块
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(func(input ModuleInput) (registryIface.Registry, error) {
			var logger log.Logger
			if input.Logger != nil {
				logger = input.Logger.With("module", "registry")
			}
			return Load(input.Provider.GetRegistry(), logger)
		}),
	)
}
