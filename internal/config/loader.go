package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// 环境变量覆盖项：RPC 地址与链 ID 属于部署环境，启动时确定
const (
	EnvRPCURL     = "ARCADE_RPC_URL"
	EnvBundlerURL = "ARCADE_BUNDLER_URL"
	EnvChainID    = "ARCADE_CHAIN_ID"
	EnvDataDir    = "ARCADE_DATA_DIR"
	EnvLogLevel   = "ARCADE_LOG_LEVEL"
)

// LoadAppConfig 读取 JSON 配置文件并应用环境变量覆盖
//
// path 为空或文件不存在时使用空配置（全部默认值）。
func LoadAppConfig(path string) (*types.AppConfig, error) {
	appConfig := &types.AppConfig{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// 使用默认配置
		case err != nil:
			return nil, fmt.Errorf("读取配置文件 %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, appConfig); err != nil {
				return nil, fmt.Errorf("解析配置文件 %s: %w", path, err)
			}
		}
	}

	if err := ApplyEnvOverrides(appConfig, os.LookupEnv); err != nil {
		return nil, err
	}
	return appConfig, nil
}

// ApplyEnvOverrides 应用 ARCADE_* 环境变量
func ApplyEnvOverrides(appConfig *types.AppConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookupNonEmpty(lookup, EnvRPCURL); ok {
		ensureChain(appConfig).RPCURL = &v
	}
	if v, ok := lookupNonEmpty(lookup, EnvBundlerURL); ok {
		ensureChain(appConfig).BundlerURL = &v
	}
	if v, ok := lookupNonEmpty(lookup, EnvChainID); ok {
		id, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return fmt.Errorf("%s 不是有效的链 ID: %w", EnvChainID, err)
		}
		ensureChain(appConfig).ChainID = &id
	}
	if v, ok := lookupNonEmpty(lookup, EnvDataDir); ok {
		appConfig.DataDir = &v
	}
	if v, ok := lookupNonEmpty(lookup, EnvLogLevel); ok {
		if appConfig.Log == nil {
			appConfig.Log = &types.UserLogConfig{}
		}
		level := strings.ToLower(v)
		appConfig.Log.Level = &level
	}
	return nil
}

func ensureChain(appConfig *types.AppConfig) *types.UserChainConfig {
	if appConfig.Chain == nil {
		appConfig.Chain = &types.UserChainConfig{}
	}
	return appConfig.Chain
}

func lookupNonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
