package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

func strPtr(s string) *string { return &s }

// TestGetEnvironment 测试 GetEnvironment() 方法
func TestGetEnvironment(t *testing.T) {
	t.Run("显式配置 prod", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Environment: strPtr("prod")})
		assert.Equal(t, "prod", provider.GetEnvironment())
	})

	t.Run("未配置时默认为 dev", func(t *testing.T) {
		assert.Equal(t, "dev", NewProvider(nil).GetEnvironment())
	})
}

func TestProvider_Defaults(t *testing.T) {
	provider := NewProvider(nil)

	chain := provider.GetChain()
	assert.Equal(t, uint64(31337), chain.ChainID)
	assert.Equal(t, chain.RPCURL, chain.BundlerURL, "未配置 bundler 时复用节点地址")

	gw := provider.GetGateway()
	assert.Equal(t, 60*time.Second, gw.InclusionTimeout)
	assert.GreaterOrEqual(t, gw.PollMax, gw.PollInitial)

	assert.Equal(t, "./data", provider.GetDataDir())
	assert.True(t, provider.GetEvent().Enabled)
	assert.Equal(t, "mnemonic", provider.GetIdentity().Provider)
	assert.Equal(t, "system", provider.GetClock().Source)
}

func TestProvider_PathsJoinDataDir(t *testing.T) {
	dataDir := t.TempDir()
	provider := NewProvider(&types.AppConfig{
		DataDir: &dataDir,
		Log:     &types.UserLogConfig{FilePath: strPtr("arcade.log")},
	})

	assert.Equal(t, filepath.Join(dataDir, "logs", "arcade.log"), provider.GetLog().FilePath)
	assert.Equal(t, filepath.Join(dataDir, "session.json"), provider.GetIdentity().SessionFile)

	abs := filepath.Join(t.TempDir(), "marker.json")
	provider = NewProvider(&types.AppConfig{
		DataDir:  &dataDir,
		Identity: &types.UserIdentityConfig{SessionFile: &abs},
	})
	assert.Equal(t, abs, provider.GetIdentity().SessionFile)
}

func TestGateway_IgnoresMalformedValues(t *testing.T) {
	factor := 0.5
	provider := NewProvider(&types.AppConfig{Gateway: &types.UserGatewayConfig{
		InclusionTimeout: strPtr("soon"),
		PollInitial:      strPtr("2s"),
		PollMax:          strPtr("1s"),
		PollFactor:       &factor,
	}})
	gw := provider.GetGateway()
	assert.Equal(t, 60*time.Second, gw.InclusionTimeout)
	assert.Equal(t, 2*time.Second, gw.PollMax, "上限不小于首次间隔")
	assert.Equal(t, 1.5, gw.PollFactor)
}

func TestLoadAppConfig(t *testing.T) {
	t.Run("文件不存在时使用默认值", func(t *testing.T) {
		cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, err)
		assert.Nil(t, cfg.Chain)
	})

	t.Run("环境变量覆盖文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"chain":{"rpc_url":"http://file","chain_id":1}}`), 0o600))
		t.Setenv(EnvRPCURL, "http://env")
		t.Setenv(EnvLogLevel, "DEBUG")

		cfg, err := LoadAppConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "http://env", *cfg.Chain.RPCURL)
		assert.Equal(t, uint64(1), *cfg.Chain.ChainID)
		assert.Equal(t, "debug", *cfg.Log.Level)
	})

	t.Run("解析失败", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"chain":`), 0o600))
		_, err := LoadAppConfig(path)
		assert.Error(t, err)
	})
}

func TestApplyEnvOverrides_InvalidChainID(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == EnvChainID {
			return "sepolia", true
		}
		return "", false
	}
	err := ApplyEnvOverrides(&types.AppConfig{}, lookup)
	assert.Error(t, err)

	cfg := &types.AppConfig{}
	require.NoError(t, ApplyEnvOverrides(cfg, func(key string) (string, bool) {
		if key == EnvChainID {
			return "0xaa36a7", true
		}
		return "", false
	}))
	assert.Equal(t, uint64(11155111), *cfg.Chain.ChainID)
}

func TestValidateMandatoryConfig(t *testing.T) {
	assert.NoError(t, ValidateMandatoryConfig(nil))
	assert.NoError(t, ValidateMandatoryConfig(&types.AppConfig{}))

	zero := uint64(0)
	low := uint64(90)
	negative := -1
	err := ValidateMandatoryConfig(&types.AppConfig{
		Environment: strPtr("staging"),
		Chain:       &types.UserChainConfig{ChainID: &zero, FeeMultiplier: &low, DialTimeout: strPtr("10")},
		Gateway:     &types.UserGatewayConfig{PollMax: strPtr("-1s"), MaxRetries: &negative},
		NonceStore:  &types.UserNonceStoreConfig{Backend: strPtr("memcached")},
		Log:         &types.UserLogConfig{Level: strPtr("verbose")},
		Clock:       &types.UserClockConfig{Source: strPtr("gps"), SyncInterval: strPtr("often")},
	})
	require.Error(t, err)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs.Errors))
	for _, e := range verrs.Errors {
		fields = append(fields, e.(*ValidationError).Field)
	}
	assert.ElementsMatch(t, []string{
		"environment",
		"chain.chain_id",
		"chain.fee_multiplier_pct",
		"chain.dial_timeout",
		"gateway.poll_max",
		"gateway.max_retries",
		"nonce_store.backend",
		"log.level",
		"clock.source",
		"clock.sync_interval",
	}, fields)
}
