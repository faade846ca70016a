package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel 默认日志级别
	defaultLogLevel = "info"

	// defaultToConsole 默认输出到控制台
	// CLI 场景下由 ARCADE_CLI_MODE 强制关闭，避免污染命令输出
	defaultToConsole = true

	// defaultFilePath 默认只写标准错误
	defaultFilePath = "stderr"

	// defaultMaxSize 单个日志文件最大大小(MB)
	defaultMaxSize = 50

	// defaultMaxBackups 最大备份文件数
	defaultMaxBackups = 5

	// defaultMaxAge 日志文件最大保留天数
	defaultMaxAge = 14

	// defaultCompress 压缩历史日志
	defaultCompress = true

	// defaultEnableMultiFile 写文件时按 module 拆分
	defaultEnableMultiFile = true

	// defaultSessionLogFile 会话、派生、签名桥接等模块的日志
	defaultSessionLogFile = "arcade-session.log"

	// defaultOperationsLogFile 合约网关与注册表的日志
	defaultOperationsLogFile = "arcade-operations.log"

	// defaultEnableCaller 记录调用位置
	defaultEnableCaller = true

	// defaultEnableStacktrace Error 级别附带堆栈
	defaultEnableStacktrace = false
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
