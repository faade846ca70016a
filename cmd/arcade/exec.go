package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cosmasken/arcadehub-sub003/internal/app"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

var (
	execTo      string
	execURI     string
	execSpender string
	execAmount  string
)

// execCmd 合约操作命令
var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "通过智能合约钱包执行游戏操作",
	Long: `组装、签名并提交用户操作，等待上链后输出回执。
需要已登录的会话（见 arcade session login）。`,
}

var execClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "领取奖励 (ArcadeHub.claimPayout)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, types.OperationClaimPayout, func(app.Core) (types.OperationParams, error) {
			return types.OperationParams{}, nil
		})
	},
}

var execMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "铸造 NFT (ArcadeNFT.mintNFT)",
	Example: `  arcade exec mint --uri ipfs://bafy.../1.json
  arcade exec mint --to 0xabc... --uri https://example.com/1.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, types.OperationMintNFT, func(core app.Core) (types.OperationParams, error) {
			to, err := parseAddress("to", execTo)
			if err != nil {
				return types.OperationParams{}, err
			}
			// 默认铸造给自己的钱包
			if to == (common.Address{}) && execTo == "" {
				if w := core.GetSession().WalletAddress; w != nil {
					to = *w
				}
			}
			return types.OperationParams{To: to, URI: execURI}, nil
		})
	},
}

var execApproveCmd = &cobra.Command{
	Use:     "approve",
	Short:   "授权代币额度 (ArcToken.approve)",
	Example: `  arcade exec approve --spender 0xabc... --amount 10.5`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, types.OperationApproveToken, func(app.Core) (types.OperationParams, error) {
			spender, err := parseAddress("spender", execSpender)
			if err != nil {
				return types.OperationParams{}, err
			}
			return types.OperationParams{Spender: spender, Amount: execAmount}, nil
		})
	},
}

func init() {
	execMintCmd.Flags().StringVar(&execTo, "to", "", "接收地址 (默认为当前钱包)")
	execMintCmd.Flags().StringVar(&execURI, "uri", "", "NFT 元数据 URI")
	_ = execMintCmd.MarkFlagRequired("uri")

	execApproveCmd.Flags().StringVar(&execSpender, "spender", "", "被授权地址")
	execApproveCmd.Flags().StringVar(&execAmount, "amount", "", "授权数量（十进制，按代币精度换算）")
	_ = execApproveCmd.MarkFlagRequired("spender")
	_ = execApproveCmd.MarkFlagRequired("amount")

	execCmd.AddCommand(execClaimCmd)
	execCmd.AddCommand(execMintCmd)
	execCmd.AddCommand(execApproveCmd)
}

// parseAddress 空字符串返回零地址，格式错误返回 InvalidParams
func parseAddress(name, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, types.NewInvalidParamsError("parse_flags", fmt.Sprintf("--%s is not a hex address: %q", name, value), nil)
	}
	return common.HexToAddress(value), nil
}

// runOperation 执行一次操作；表格输出时用进度动画显示各步骤
func runOperation(cmd *cobra.Command, kind types.OperationKind, params func(app.Core) (types.OperationParams, error)) error {
	return withCore(cmd, func(ctx context.Context, core app.Core) error {
		p, err := params(core)
		if err != nil {
			return err
		}

		if formatter.Interactive() {
			spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(fmt.Sprintf("%s: building", kind))
			if spinner != nil {
				stop, err := core.SubscribeOperations(func(e metrics.OperationEvent) {
					spinner.UpdateText(fmt.Sprintf("%s: %s", e.Kind, e.State))
				})
				if err == nil {
					defer stop()
				}
				defer func() { _ = spinner.Stop() }()
			}
		}

		receipt, err := core.Execute(ctx, kind, p)
		if err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("%s 已上链，区块 %d", kind, receipt.BlockNumber))
		return formatter.Print("Receipt", receiptFields(receipt))
	})
}

func receiptFields(r *types.Receipt) []field {
	return []field{
		{"operation_id", r.OperationID},
		{"kind", string(r.Kind)},
		{"wallet", r.Wallet},
		{"nonce", r.Nonce},
		{"user_op_hash", r.UserOpHash},
		{"tx_hash", r.TxHash},
		{"block_number", r.BlockNumber},
		{"success", r.Success},
		{"actual_gas_cost", r.ActualGasCost},
		{"actual_gas_used", r.ActualGasUsed},
		{"submitted_at", r.SubmittedAt},
		{"included_at", r.IncludedAt},
	}
}
