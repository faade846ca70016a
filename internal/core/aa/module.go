package aa

import (
	"go.uber.org/fx"

	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
)

// ModuleInput 账户抽象模块依赖
type ModuleInput struct {
	fx.In

	Provider  config.Provider
	Logger    log.Logger `optional:"true"`
	Lifecycle fx.Lifecycle
}

// ModuleOutput 账户抽象模块输出
type ModuleOutput struct {
	fx.Out

	Resolver aaIface.Resolver
	Impl     *Resolver
}

// Module 返回账户抽象模块
func Module() fx.Option {
	return fx.Module("aa",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建解析器，停止时关闭 RPC 连接
func ProvideServices(input ModuleInput) ModuleOutput {
	var logger log.Logger
	if input.Logger != nil {
		logger = input.Logger.With("module", "aa")
	}
	r := NewResolver(Options{
		Account: input.Provider.GetAccount(),
		Chain:   input.Provider.GetChain(),
		Logger:  logger,
	})
	input.Lifecycle.Append(fx.StopHook(r.Close))
	return ModuleOutput{Resolver: r, Impl: r}
}
