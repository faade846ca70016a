package event

import (
	"go.uber.org/fx"

	eventconfig "github.com/cosmasken/arcadehub-sub003/internal/config/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	eventInterface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
)

// ModuleInput 事件模块输入依赖
type ModuleInput struct {
	fx.In

	Provider  config.Provider // 配置提供者
	Logger    log.Logger      `optional:"true"` // 日志记录器（可选）
	Lifecycle fx.Lifecycle    // 生命周期管理
}

// ModuleOutput 事件模块输出服务
type ModuleOutput struct {
	fx.Out

	EventBus eventInterface.EventBus // 共享事件总线
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建共享事件总线，停止时等待异步处理完成
func ProvideServices(input ModuleInput) ModuleOutput {
	cfg := eventconfig.NewWithOptions(input.Provider.GetEvent())
	bus := New(cfg)

	if input.Logger != nil {
		logger := input.Logger.With("module", "event")
		bus.WithLogger(logger)
		logger.Infof("事件总线已初始化: enabled=%v", cfg.IsEnabled())
	}

	input.Lifecycle.Append(fx.StopHook(bus.WaitAsync))

	return ModuleOutput{EventBus: bus}
}
