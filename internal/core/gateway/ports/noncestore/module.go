package noncestore

import (
	"go.uber.org/fx"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/gateway"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
)

// ModuleInput nonce 缓存模块依赖
type ModuleInput struct {
	fx.In

	Provider  config.Provider
	Clock     clock.Clock `optional:"true"`
	Logger    log.Logger  `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Module 返回 nonce 缓存模块
func Module() fx.Option {
	return fx.Module("noncestore",
		fx.Provide(ProvideStore),
	)
}

// ProvideStore 创建 NonceStore，停止时关闭
func ProvideStore(input ModuleInput) (gateway.NonceStore, error) {
	options := input.Provider.GetNonceStore()
	store, err := New(options, input.Provider.GetChain().ChainID, input.Clock)
	if err != nil {
		return nil, err
	}
	if input.Logger != nil {
		input.Logger.With("module", "noncestore").Infof("nonce 缓存后端: %s, ttl=%s", options.Backend, options.TTL)
	}
	input.Lifecycle.Append(fx.StopHook(store.Close))
	return store, nil
}
