package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cosmasken/arcadehub-sub003/internal/config/clock"
	"github.com/cosmasken/arcadehub-sub003/internal/config/noncestore"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

// ValidateMandatoryConfig 启动时校验配置
//
// 各配置区解析时对格式错误的值静默回退默认值，这里把这类错误提前暴露出来。
// 钱包部署参数（地址、盐值、paymaster）由账户抽象解析器校验，
// 以 WalletDerivationError(invalid_config) 的形式在登录时报告。
func ValidateMandatoryConfig(appConfig *types.AppConfig) error {
	if appConfig == nil {
		return nil
	}
	var errors []error
	add := func(field, format string, args ...interface{}) {
		errors = append(errors, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	duration := func(field string, v *string) {
		if v == nil {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(*v))
		if err != nil || d <= 0 {
			add(field, "无效的时长 %q（期望类似 \"30s\"）", *v)
		}
	}

	// 1. 运行环境
	if env := appConfig.Environment; env != nil {
		switch *env {
		case "dev", "test", "prod":
		default:
			add("environment", "未知环境 %q，可选 dev | test | prod", *env)
		}
	}

	// 2. 链接入
	if c := appConfig.Chain; c != nil {
		if c.ChainID != nil && *c.ChainID == 0 {
			add("chain.chain_id", "链ID不能为0")
		}
		if c.RPCURL != nil && strings.TrimSpace(*c.RPCURL) == "" {
			add("chain.rpc_url", "节点地址不能为空")
		}
		if c.FeeMultiplier != nil && *c.FeeMultiplier < 100 {
			add("chain.fee_multiplier_pct", "费用放大百分比不能小于 100，当前 %d", *c.FeeMultiplier)
		}
		duration("chain.dial_timeout", c.DialTimeout)
		duration("chain.request_timeout", c.RequestTimeout)
	}

	// 3. 合约网关
	if g := appConfig.Gateway; g != nil {
		duration("gateway.inclusion_timeout", g.InclusionTimeout)
		duration("gateway.poll_initial", g.PollInitial)
		duration("gateway.poll_max", g.PollMax)
		duration("gateway.retry_backoff", g.RetryBackoff)
		if g.PollFactor != nil && *g.PollFactor < 1 {
			add("gateway.poll_factor", "轮询退避系数不能小于 1，当前 %v", *g.PollFactor)
		}
		if g.MaxRetries != nil && *g.MaxRetries < 0 {
			add("gateway.max_retries", "重试次数不能为负数")
		}
	}

	// 4. nonce 缓存
	if n := appConfig.NonceStore; n != nil {
		if n.Backend != nil && *n.Backend != noncestore.BackendMemory && *n.Backend != noncestore.BackendRedis {
			add("nonce_store.backend", "未知后端 %q，可选 %s | %s", *n.Backend, noncestore.BackendMemory, noncestore.BackendRedis)
		}
		duration("nonce_store.ttl", n.TTL)
	}

	// 5. 日志级别
	if l := appConfig.Log; l != nil && l.Level != nil {
		switch strings.ToLower(*l.Level) {
		case "debug", "info", "warn", "error", "panic", "fatal":
		default:
			add("log.level", "未知日志级别 %q", *l.Level)
		}
	}

	// 6. 时间源
	if c := appConfig.Clock; c != nil {
		if c.Source != nil {
			switch strings.ToLower(strings.TrimSpace(*c.Source)) {
			case clock.SourceSystem, clock.SourceNTP:
			default:
				add("clock.source", "未知时间源 %q，可选 %s | %s", *c.Source, clock.SourceSystem, clock.SourceNTP)
			}
		}
		duration("clock.sync_interval", c.SyncInterval)
	}

	// 如果有错误，返回组合错误
	if len(errors) > 0 {
		return &ValidationErrors{Errors: errors}
	}

	return nil
}

// ValidationErrors 多个验证错误
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msg := "配置验证失败，发现以下问题：\n"
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}
