package bridge

import (
	"go.uber.org/fx"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/wallet"
)

// ModuleInput 签名桥接模块依赖
type ModuleInput struct {
	fx.In

	Logger log.Logger `optional:"true"`
}

// Module 返回签名桥接模块
func Module() fx.Option {
	return fx.Module("bridge",
		fx.Provide(func(input ModuleInput) wallet.Bridge {
			var logger log.Logger
			if input.Logger != nil {
				logger = input.Logger.With("module", "bridge")
			}
			return New(logger)
		}),
	)
}
