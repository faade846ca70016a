package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	config "github.com/cosmasken/arcadehub-sub003/internal/config"
	"github.com/cosmasken/arcadehub-sub003/internal/core/aa"
	"github.com/cosmasken/arcadehub-sub003/internal/core/bridge"
	"github.com/cosmasken/arcadehub-sub003/internal/core/gateway"
	"github.com/cosmasken/arcadehub-sub003/internal/core/gateway/ports/noncestore"
	"github.com/cosmasken/arcadehub-sub003/internal/core/identity/mnemonic"
	"github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/event"
	log "github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/metrics"
	"github.com/cosmasken/arcadehub-sub003/internal/core/registry"
	"github.com/cosmasken/arcadehub-sub003/internal/core/session"
	configIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
)

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{
		opts: opts,
	}
}

// SetupInfrastructureLayer 设置基础设施层模块
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		config.Module(),  // 1. 配置(不依赖其他)
		log.Module(),     // 2. 日志(依赖配置)
		event.Module(),   // 3. 事件总线(依赖配置和日志)
		metrics.Module(), // 4. 观测钩子(依赖事件总线)
		clock.Module(),   // 5. 时间源(依赖配置)
	}
}

// SetupDataLayer 设置数据层模块
func (b *Bootstrap) SetupDataLayer() []fx.Option {
	return []fx.Option{
		noncestore.Module(), // nonce 缓存（内存或 Redis）
		registry.Module(),   // 合约注册表
	}
}

// SetupBusinessLayer 设置业务逻辑层模块
//
// 依赖顺序：身份提供者 → 签名桥接 → 账户抽象 → 会话 → 合约网关
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		mnemonic.Module(),
		bridge.Module(),
		aa.Module(),
		session.Module(),
		gateway.Module(),
	}
}

// SetupApplicationLayer 设置应用层模块
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	modules := []fx.Option{
		// 供config模块使用
		fx.Provide(func() configIface.AppOptions { return b.opts }),
	}
	return append(modules, b.opts.extra...)
}

// SetupModules 设置所有应用模块
func (b *Bootstrap) SetupModules() []fx.Option {
	var allModules []fx.Option

	// 按照依赖顺序添加各层模块
	allModules = append(allModules, b.SetupInfrastructureLayer()...)
	allModules = append(allModules, b.SetupDataLayer()...)
	allModules = append(allModules, b.SetupBusinessLayer()...)
	allModules = append(allModules, b.SetupApplicationLayer()...)

	return allModules
}

// CreateFxApp 创建并配置fx应用
func (b *Bootstrap) CreateFxApp(extra ...fx.Option) error {
	appOptions := []fx.Option{
		fx.Options(b.SetupModules()...),
		fx.Options(extra...),
	}

	if b.opts.fxEvents {
		appOptions = append(appOptions, fx.WithLogger(func(z *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: z.With(zap.String("module", "app"))}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}))
	} else {
		// 禁用fx内部日志
		appOptions = append(appOptions, fx.NopLogger)
	}

	b.fxApp = fx.New(appOptions...)
	return b.fxApp.Err()
}

// StartApp 启动应用程序
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止应用程序
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}
