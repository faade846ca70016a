package config

import "github.com/cosmasken/arcadehub-sub003/pkg/types"

// AppOptions 应用配置选项
type AppOptions interface {
	// GetAppConfig 获取应用配置
	GetAppConfig() *types.AppConfig
}
