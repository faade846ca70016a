package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logconfig "github.com/cosmasken/arcadehub-sub003/internal/config/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// optionsProvider 直接提供 LogOptions 的测试配置源
type optionsProvider struct{ options *logconfig.LogOptions }

func (p optionsProvider) GetLog() *logconfig.LogOptions { return p.options }

func configOf(options *logconfig.LogOptions) *logconfig.Config {
	return logconfig.NewFromProvider(optionsProvider{options: options})
}

// newFileLogger 创建只写文件的日志记录器
func newFileLogger(t *testing.T, multi bool) (string, *Logger) {
	t.Helper()
	dir := t.TempDir()
	options := &logconfig.LogOptions{
		Level:             DebugLevel,
		FilePath:          filepath.Join(dir, "arcade.log"),
		ToConsole:         false,
		EnableMultiFile:   multi,
		SessionLogFile:    "session.log",
		OperationsLogFile: "operations.log",
	}
	logger, err := New(configOf(options))
	require.NoError(t, err)
	concrete, ok := logger.(*Logger)
	require.True(t, ok)
	return dir, concrete
}

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

// TestStructuredLogging 测试结构化日志写入文件
func TestStructuredLogging(t *testing.T) {
	dir, logger := newFileLogger(t, false)

	logger.With("wallet", "0xabc", "nonce", 7).Info("结构化日志测试")
	require.NoError(t, logger.Sync())

	entries := readLines(t, filepath.Join(dir, "arcade.log"))
	require.Len(t, entries, 1)
	assert.Equal(t, "结构化日志测试", entries[0]["message"])
	assert.Equal(t, "0xabc", entries[0]["wallet"])
	assert.EqualValues(t, 7, entries[0]["nonce"])
}

// TestMultiFileRouting 测试多文件模式按模块分流
func TestMultiFileRouting(t *testing.T) {
	dir, logger := newFileLogger(t, true)

	NewModuleLogger(logger, "session").Info("session ready")
	NewModuleLogger(logger, "gateway").Info("operation included")
	require.NoError(t, logger.Sync())

	sessionLog, err := os.ReadFile(filepath.Join(dir, "session.log"))
	require.NoError(t, err)
	opsLog, err := os.ReadFile(filepath.Join(dir, "operations.log"))
	require.NoError(t, err)

	assert.Contains(t, string(sessionLog), "session ready")
	assert.NotContains(t, string(sessionLog), "operation included")
	assert.Contains(t, string(opsLog), "operation included")
	assert.NotContains(t, string(opsLog), "session ready")
}

// TestLevelFilter 测试日志级别过滤
func TestLevelFilter(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(configOf(&logconfig.LogOptions{
		Level:    WarnLevel,
		FilePath: filepath.Join(dir, "arcade.log"),
	}))
	require.NoError(t, err)

	logger.Info("不应出现")
	logger.Warn("应当出现")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "arcade.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "不应出现")
	assert.Contains(t, string(data), "应当出现")
}

// TestGlobalLogger 测试全局日志记录器替换
func TestGlobalLogger(t *testing.T) {
	old := GetLogger()
	defer SetLogger(old)

	_, logger := newFileLogger(t, false)
	SetLogger(logger)
	assert.Same(t, logger, GetLogger())

	SetLogger(nil)
	assert.Same(t, logger, GetLogger(), "nil 不应替换全局记录器")

	assert.NotNil(t, With("k", "v"))
}

func TestToZapFields_DropsDanglingKey(t *testing.T) {
	fields := toZapFields("a", 1, 2, "b", "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "2", fields[1].Key)
}

func TestNewModuleLogger_NilBase(t *testing.T) {
	assert.NotNil(t, NewModuleLogger(nil, "session"))
}
