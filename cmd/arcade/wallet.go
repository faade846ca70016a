package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cosmasken/arcadehub-sub003/internal/app"
	"github.com/cosmasken/arcadehub-sub003/internal/core/gateway"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// walletCmd 钱包相关命令
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "智能合约钱包",
}

var walletAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "显示钱包地址与所有者",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core app.Core) error {
			s := core.GetSession()
			if !s.Ready() {
				return types.NewSessionNotReadyError(s.Status)
			}
			return formatter.Print("Wallet", []field{
				{"wallet", s.WalletAddress},
				{"owner", s.Account.Owner},
				{"deployed", s.Account.Deployed},
				{"entry_point", s.Account.Client.EntryPoint()},
			})
		})
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "查询原生代币与 ARC 代币余额",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, core app.Core) error {
			native, err := core.NativeBalance(ctx)
			if err != nil {
				return err
			}
			fields := []field{
				{"wallet", core.GetSession().WalletAddress},
				{"native_wei", native},
				{"native", gateway.NewTokenAmount(native, 18).StringTrimmed()},
			}

			token, err := core.TokenBalance(ctx)
			if err != nil {
				// 代币合约未配置时仍显示原生余额
				formatter.PrintWarning("无法读取代币余额: " + err.Error())
			} else {
				fields = append(fields,
					field{"token", token.StringTrimmed()},
					field{"token_units", token.Units()},
				)
			}
			return formatter.Print("Balance", fields)
		})
	},
}

func init() {
	walletCmd.AddCommand(walletAddressCmd)
	walletCmd.AddCommand(walletBalanceCmd)
}
