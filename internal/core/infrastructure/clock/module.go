package clock

import (
	"fmt"

	"go.uber.org/fx"

	clockconfig "github.com/cosmasken/arcadehub-sub003/internal/config/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	infraClock "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
)

// ModuleInput 时钟模块依赖
type ModuleInput struct {
	fx.In

	Provider config.Provider
	Logger   log.Logger `optional:"true"`
}

// Module 返回时钟模块
func Module() fx.Option {
	return fx.Module("clock",
		fx.Provide(ProvideClock),
	)
}

// ProvideClock 按配置选择时间源
func ProvideClock(input ModuleInput) (infraClock.Clock, error) {
	opts := input.Provider.GetClock()
	switch opts.Source {
	case clockconfig.SourceSystem, "":
		return NewSystemClock(), nil
	case clockconfig.SourceNTP:
		c := NewNTPClock(NTPOptions{
			Server:         opts.NTPServer,
			SyncInterval:   opts.SyncInterval,
			BackoffInitial: opts.BackoffInitial,
			BackoffMax:     opts.BackoffMax,
		})
		if input.Logger != nil {
			offset, _, err := c.Health()
			if err != nil {
				input.Logger.With("module", "clock").Warnf("NTP 初始同步失败，暂用本机时间: server=%s, err=%v", opts.NTPServer, err)
			} else {
				input.Logger.With("module", "clock").Infof("NTP 时钟已同步: server=%s, offset=%s", opts.NTPServer, offset)
			}
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown clock source %q", opts.Source)
	}
}
