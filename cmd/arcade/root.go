package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cosmasken/arcadehub-sub003/configs"
	"github.com/cosmasken/arcadehub-sub003/internal/app"
	"github.com/cosmasken/arcadehub-sub003/internal/app/version"
	logimpl "github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigFile   string // 配置文件
	Environment  string // 未指定配置文件时使用的内置配置
	OutputFormat string // 输出格式
	Verbose      bool   // 详细模式
	MetricsAddr  string // Prometheus 指标监听地址
	Timeout      time.Duration
}

var (
	globalFlags GlobalFlags
	formatter   *Formatter
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "arcade",
	Short: "Arcade 会话与智能合约钱包命令行",
	Long: `Arcade CLI - 会话与 ERC-4337 智能合约钱包

登录后派生确定性的智能合约钱包，并通过 Bundler 提交游戏操作：
领取奖励、铸造 NFT、代币授权。

登录状态通过数据目录中的会话标记跨进程保留；
后续命令在 ARCADE_MNEMONIC 可用时静默恢复会话。`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// CLI 模式：关闭控制台日志，只写文件，保持终端输出干净
		if !globalFlags.Verbose {
			_ = os.Setenv(logimpl.EnvCLIMode, "true")
		}

		var err error
		formatter, err = NewFormatter(Format(globalFlags.OutputFormat), os.Stdout)
		return err
	},
}

// Execute 执行根命令
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if formatter != nil {
			formatter.PrintError(err)
		} else {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "配置文件路径 (默认读取 $ARCADE_CONFIG，否则使用内置配置)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Environment, "env", "dev", "内置配置: dev|test|prod")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", string(FormatTable), "输出格式: table|json|pretty")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "日志输出到控制台")
	rootCmd.PersistentFlags().StringVar(&globalFlags.MetricsAddr, "metrics-addr", "", "Prometheus 指标监听地址，如 :9464")
	rootCmd.PersistentFlags().DurationVar(&globalFlags.Timeout, "timeout", 3*time.Minute, "单个命令的超时，0 表示不限")

	rootCmd.SetVersionTemplate(version.GetFullVersion() + "\n")

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.GetBuildInfo()
		return formatter.Print("Version", []field{
			{"version", info.Version},
			{"build_time", info.BuildTime},
			{"build_env", info.BuildEnv},
			{"go_version", info.GoVersion},
			{"platform", info.GoOS + "/" + info.GoArch},
		})
	}}

// appOptions 配置来源：--config > $ARCADE_CONFIG > 内置配置
func appOptions() ([]app.Option, error) {
	opts := []app.Option{}
	if globalFlags.Verbose {
		opts = append(opts, app.WithFxEvents())
	}
	switch {
	case globalFlags.ConfigFile != "":
		return append(opts, app.WithConfigFile(globalFlags.ConfigFile)), nil
	case os.Getenv(app.EnvConfigPath) != "":
		return opts, nil
	default:
		embedded, err := configs.ForEnvironment(globalFlags.Environment)
		if err != nil {
			return nil, err
		}
		return append(opts, app.WithEmbeddedConfig(embedded)), nil
	}
}

// withCore 启动应用、静默恢复会话后执行 fn，结束时停止应用
func withCore(cmd *cobra.Command, fn func(ctx context.Context, core app.Core) error) error {
	opts, err := appOptions()
	if err != nil {
		return err
	}
	core, err := app.New(opts...)
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = core.Stop(stopCtx)
	}()

	if globalFlags.MetricsAddr != "" {
		shutdown := serveMetrics(globalFlags.MetricsAddr)
		defer shutdown()
	}

	ctx, cancel := cmd.Context(), context.CancelFunc(func() {})
	if globalFlags.Timeout > 0 {
		ctx, cancel = context.WithTimeout(cmd.Context(), globalFlags.Timeout)
	}
	defer cancel()

	if _, err := core.Init(ctx); err != nil {
		formatter.PrintWarning(fmt.Sprintf("恢复会话失败: %v", err))
	}
	return fn(ctx, core)
}

// serveMetrics 在后台暴露 /metrics，返回关闭函数
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			formatter.PrintWarning(fmt.Sprintf("指标服务退出: %v", err))
		}
	}()
	formatter.PrintInfo(fmt.Sprintf("指标地址: http://%s/metrics", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// exitCode 按错误大类区分退出码，便于脚本判断
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidParams):
		return 2
	case errors.Is(err, types.ErrSessionNotReady):
		return 3
	case errors.Is(err, types.ErrContractCall):
		return 4
	case errors.Is(err, types.ErrInclusionTimeout):
		return 5
	case errors.Is(err, types.ErrNetwork):
		return 6
	default:
		return 1
	}
}
