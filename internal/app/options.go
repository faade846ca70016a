package app

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/fx"

	internalconfig "github.com/cosmasken/arcadehub-sub003/internal/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/config"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// EnvConfigPath 未显式指定配置文件时读取的环境变量
const EnvConfigPath = "ARCADE_CONFIG"

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项
// 实现config.AppOptions接口
type options struct {
	// 配置文件路径
	configFilePath string

	// 嵌入的配置内容（优先级高于configFilePath）
	embeddedConfig []byte

	// 直接给出的用户配置（优先级最高，不再应用环境变量）
	appConfig *types.AppConfig

	// 输出 fx 装配日志
	fxEvents bool

	// 追加到依赖图的额外选项
	extra []fx.Option
}

// 编译时校验options是否实现了config.AppOptions接口
var _ config.AppOptions = (*options)(nil)

// WithConfigFile 设置配置文件路径
func WithConfigFile(configPath string) Option {
	return func(o *options) {
		o.configFilePath = configPath
	}
}

// WithEmbeddedConfig 设置嵌入的配置内容（优先级高于WithConfigFile）
// 这允许直接使用编译时嵌入的配置，无需创建临时文件
func WithEmbeddedConfig(configBytes []byte) Option {
	return func(o *options) {
		o.embeddedConfig = configBytes
	}
}

// WithAppConfig 直接使用给定配置
func WithAppConfig(appConfig *types.AppConfig) Option {
	return func(o *options) {
		o.appConfig = appConfig
	}
}

// WithFxEvents 将依赖注入过程写入日志（debug 级别）
func WithFxEvents() Option {
	return func(o *options) {
		o.fxEvents = true
	}
}

// WithModules 追加 fx 选项，例如用 fx.Decorate 替换某个组件
func WithModules(modules ...fx.Option) Option {
	return func(o *options) {
		o.extra = append(o.extra, modules...)
	}
}

// newOptions 创建选项
func newOptions(opts ...Option) *options {
	options := &options{}

	// 应用自定义选项
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// resolve 按优先级确定最终配置：显式配置 > 嵌入配置 > 配置文件（含 ARCADE_CONFIG）
func (o *options) resolve() error {
	switch {
	case o.appConfig != nil:
		return nil

	case len(o.embeddedConfig) > 0:
		appConfig := &types.AppConfig{}
		if err := json.Unmarshal(o.embeddedConfig, appConfig); err != nil {
			return fmt.Errorf("解析嵌入配置失败: %w", err)
		}
		if err := internalconfig.ApplyEnvOverrides(appConfig, os.LookupEnv); err != nil {
			return err
		}
		o.appConfig = appConfig
		return nil

	default:
		path := o.configFilePath
		if path == "" {
			path = os.Getenv(EnvConfigPath)
		}
		appConfig, err := internalconfig.LoadAppConfig(path)
		if err != nil {
			return err
		}
		o.appConfig = appConfig
		return nil
	}
}

// GetAppConfig 返回应用程序配置
// 实现config.AppOptions接口
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
