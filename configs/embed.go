// Package configs 随二进制嵌入的各环境配置
package configs

import (
	_ "embed"
	"fmt"
)

// 嵌入所有环境的配置文件（在configs目录内直接引用）
//
//go:embed development/config.json
var developmentConfig []byte

//go:embed testing/config.json
var testingConfig []byte

//go:embed production/config.json
var productionConfig []byte

// ForEnvironment 按环境名返回配置：dev | test | prod
func ForEnvironment(env string) ([]byte, error) {
	switch env {
	case "", "dev", "development":
		return developmentConfig, nil
	case "test", "testing":
		return testingConfig, nil
	case "prod", "production":
		return productionConfig, nil
	default:
		return nil, fmt.Errorf("unknown environment %q (dev|test|prod)", env)
	}
}
