package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/cosmasken/arcadehub-sub003/internal/app"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/session"
)

// sessionCmd 会话相关命令
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "会话管理",
	Long:  "登录、退出与查询当前会话",
}

var sessionInitCmd = &cobra.Command{
	Use:   "init",
	Short: "静默恢复已有会话",
	Long: `读取数据目录中的会话标记，并在 ARCADE_MNEMONIC 可用时恢复会话。
没有可恢复的会话时保持 idle，不会提示输入。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core app.Core) error {
			return printSession(core.GetSession())
		})
	},
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "登录并派生智能合约钱包",
	Long: `从 ARCADE_MNEMONIC 读取助记词；未设置时在终端提示输入（不回显）。
登录成功后写入会话标记，之后的命令会静默恢复该会话。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core app.Core) error {
			if core.GetSession().Ready() {
				formatter.PrintInfo("已登录")
				return printSession(core.GetSession())
			}
			snap, err := core.Login(ctx)
			if err != nil {
				return err
			}
			formatter.PrintSuccess(fmt.Sprintf("登录成功，钱包地址 %s", snap.WalletAddress.Hex()))
			return printSession(snap)
		})
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "退出登录并删除会话标记",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core app.Core) error {
			snap := core.Logout(ctx)
			formatter.PrintSuccess("已退出登录")
			return printSession(snap)
		})
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示当前会话",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core app.Core) error {
			return printSession(core.GetSession())
		})
	},
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "登录后持续输出会话迁移与操作进度，Ctrl+C 退出",
	RunE: func(cmd *cobra.Command, args []string) error {
		// watch 一直运行到收到信号
		globalFlags.Timeout = 0
		return withCore(cmd, func(_ context.Context, core app.Core) error {
			ctx := cmd.Context()
			unsubscribe := core.Subscribe(func(s session.Snapshot) {
				_ = printSession(s)
			})
			defer unsubscribe()

			stop, err := core.SubscribeOperations(func(e metrics.OperationEvent) {
				_ = formatter.Print("Operation", operationFields(e))
			})
			if err != nil {
				formatter.PrintWarning(fmt.Sprintf("无法订阅操作进度: %v", err))
			} else {
				defer stop()
			}

			if !core.GetSession().Ready() {
				if _, err := core.Login(ctx); err != nil {
					return err
				}
			}
			<-ctx.Done()
			return nil
		})
	},
}

func init() {
	sessionCmd.AddCommand(sessionInitCmd)
	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionWatchCmd)
}

func printSession(s session.Snapshot) error {
	fields := []field{
		{"status", string(s.Status)},
		{"version", s.Version},
	}
	if s.Signer != nil {
		fields = append(fields, field{"owner", s.Signer.Address()})
	}
	if s.WalletAddress != nil {
		fields = append(fields, field{"wallet", s.WalletAddress})
	}
	if s.Account != nil {
		fields = append(fields, field{"deployed", s.Account.Deployed})
	}
	if s.LastError != nil {
		fields = append(fields, field{"error", s.LastError.Error()})
	}
	return formatter.Print("Session", fields)
}

func operationFields(e metrics.OperationEvent) []field {
	fields := []field{
		{"operation_id", e.OperationID},
		{"kind", string(e.Kind)},
		{"state", string(e.State)},
		{"wallet", e.Wallet},
		{"nonce", e.Nonce},
		{"elapsed", e.Elapsed.String()},
	}
	if e.UserOpHash != (common.Hash{}) {
		fields = append(fields, field{"user_op_hash", e.UserOpHash})
	}
	if e.Err != nil {
		fields = append(fields, field{"error", e.Err.Error()})
	}
	return fields
}
