package gateway

import (
	"go.uber.org/fx"

	gatewayconfig "github.com/cosmasken/arcadehub-sub003/internal/config/gateway"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	gatewayIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/gateway"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	registryIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/registry"
	sessionIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/session"
)

// ModuleInput 合约网关依赖
type ModuleInput struct {
	fx.In

	Provider   config.Provider
	Session    sessionIface.Reader
	Registry   registryIface.Registry
	NonceStore gatewayIface.NonceStore `optional:"true"`
	Hook       metrics.Hook            `optional:"true"`
	Clock      clock.Clock             `optional:"true"`
	Logger     log.Logger              `optional:"true"`
}

// ModuleOutput 合约网关输出
type ModuleOutput struct {
	fx.Out

	Gateway gatewayIface.Gateway
	Service *Service
}

// Module 返回合约网关模块
func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建合约网关
func ProvideServices(input ModuleInput) ModuleOutput {
	var logger log.Logger
	if input.Logger != nil {
		logger = input.Logger.With("module", "gateway")
	}
	svc := NewService(Options{
		Session:    input.Session,
		Registry:   input.Registry,
		NonceStore: input.NonceStore,
		Hook:       input.Hook,
		Clock:      input.Clock,
		Logger:     logger,
		Config:     gatewayconfig.NewWithOptions(*input.Provider.GetGateway()),
	})
	return ModuleOutput{Gateway: svc, Service: svc}
}
