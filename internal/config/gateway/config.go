// Package gateway 提供合约网关配置
package gateway

import (
	"time"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// GatewayOptions 合约网关配置选项
type GatewayOptions struct {
	InclusionTimeout time.Duration `json:"inclusion_timeout"` // 等待上链的最长时间
	PollInitial      time.Duration `json:"poll_initial"`      // 首次轮询间隔
	PollMax          time.Duration `json:"poll_max"`          // 最大轮询间隔
	PollFactor       float64       `json:"poll_factor"`       // 轮询退避系数
	MaxRetries       int           `json:"max_retries"`       // 提交前瞬时网络错误的最大重试次数
	RetryBackoff     time.Duration `json:"retry_backoff"`     // 重试间隔
}

// Config 合约网关配置实现
type Config struct {
	options *GatewayOptions
}

// New 创建合约网关配置
func New(userConfig *types.UserGatewayConfig) *Config {
	options := &GatewayOptions{
		InclusionTimeout: defaultInclusionTimeout,
		PollInitial:      defaultPollInitial,
		PollMax:          defaultPollMax,
		PollFactor:       defaultPollFactor,
		MaxRetries:       defaultMaxRetries,
		RetryBackoff:     defaultRetryBackoff,
	}

	if userConfig != nil {
		setDuration(&options.InclusionTimeout, userConfig.InclusionTimeout)
		setDuration(&options.PollInitial, userConfig.PollInitial)
		setDuration(&options.PollMax, userConfig.PollMax)
		setDuration(&options.RetryBackoff, userConfig.RetryBackoff)
		if userConfig.PollFactor != nil && *userConfig.PollFactor >= 1 {
			options.PollFactor = *userConfig.PollFactor
		}
		if userConfig.MaxRetries != nil && *userConfig.MaxRetries >= 0 {
			options.MaxRetries = *userConfig.MaxRetries
		}
	}

	if options.PollMax < options.PollInitial {
		options.PollMax = options.PollInitial
	}

	return &Config{options: options}
}

// NewWithOptions 直接使用给定选项（测试与嵌入场景）
func NewWithOptions(options GatewayOptions) *Config {
	return &Config{options: &options}
}

// GetOptions 获取配置选项
func (c *Config) GetOptions() *GatewayOptions {
	return c.options
}

func setDuration(dst *time.Duration, src *string) {
	if src == nil {
		return
	}
	if d, err := time.ParseDuration(*src); err == nil && d > 0 {
		*dst = d
	}
}
