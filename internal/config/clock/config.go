// Package clock 提供时间源配置
package clock

import (
	"strings"
	"time"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// ClockOptions 时间源配置选项
type ClockOptions struct {
	Source       string        `json:"source"` // system | ntp
	NTPServer    string        `json:"ntp_server"`
	SyncInterval time.Duration `json:"sync_interval"`

	// 同步失败后的退避
	BackoffInitial time.Duration `json:"backoff_initial"`
	BackoffMax     time.Duration `json:"backoff_max"`
}

// Config 时间源配置实现
type Config struct {
	options *ClockOptions
}

// New 创建时间源配置，格式错误的时长回退默认值
func New(userConfig *types.UserClockConfig) *Config {
	options := &ClockOptions{
		Source:         defaultSource,
		NTPServer:      defaultNTPServer,
		SyncInterval:   defaultSyncInterval,
		BackoffInitial: defaultBackoffInitial,
		BackoffMax:     defaultBackoffMax,
	}
	if userConfig != nil {
		if userConfig.Source != nil && *userConfig.Source != "" {
			options.Source = strings.ToLower(strings.TrimSpace(*userConfig.Source))
		}
		if userConfig.NTPServer != nil && *userConfig.NTPServer != "" {
			options.NTPServer = strings.TrimSpace(*userConfig.NTPServer)
		}
		if d, ok := parseDuration(userConfig.SyncInterval); ok {
			options.SyncInterval = d
		}
	}
	return &Config{options: options}
}

func parseDuration(v *string) (time.Duration, bool) {
	if v == nil {
		return 0, false
	}
	d, err := time.ParseDuration(strings.TrimSpace(*v))
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// GetOptions 获取配置选项
func (c *Config) GetOptions() *ClockOptions {
	return c.options
}
