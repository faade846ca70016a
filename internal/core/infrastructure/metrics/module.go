// Package metrics 提供观测钩子的实现
//
// 📋 **观测基础设施模块**
//
// 本模块提供：
// - PrometheusHook: 会话迁移与合约操作的 Prometheus 指标
// - LogHook: 结构化日志
// - EventHook: 转发到共享事件总线（事件系统启用时）
//
// 三者经 Multi 组合为单一 metrics.Hook 注入会话管理器与合约网关。
package metrics

import (
	"go.uber.org/fx"

	eventconfig "github.com/cosmasken/arcadehub-sub003/internal/config/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	metricsIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
)

// ModuleInput 定义观测模块的输入依赖
type ModuleInput struct {
	fx.In

	Provider config.Provider
	Logger   log.Logger     `optional:"true"`
	EventBus event.EventBus `optional:"true"`
}

// Module 返回 metrics 模块的 fx.Option
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideHook),
	)
}

// ProvideHook 组合观测钩子
func ProvideHook(input ModuleInput) metricsIface.Hook {
	hooks := Multi{NewPrometheusHook()}
	if input.Logger != nil {
		hooks = append(hooks, NewLogHook(input.Logger))
	}
	if input.EventBus != nil && eventconfig.NewWithOptions(input.Provider.GetEvent()).IsEnabled() {
		hooks = append(hooks, NewEventHook(input.EventBus))
	}
	return hooks
}
