package types

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// OperationKind 合约网关支持的高层操作
type OperationKind string

const (
	OperationClaimPayout  OperationKind = "claim_payout"
	OperationMintNFT      OperationKind = "mint_nft"
	OperationApproveToken OperationKind = "approve_token"
)

// OperationKinds 所有支持的操作
var OperationKinds = []OperationKind{OperationClaimPayout, OperationMintNFT, OperationApproveToken}

// ParseOperationKind 解析操作名称，兼容 "ClaimPayout" / "claim-payout" 等写法
func ParseOperationKind(s string) (OperationKind, error) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	for _, k := range OperationKinds {
		if strings.ReplaceAll(string(k), "_", "") == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown operation kind: %q", s)
}

// OperationState 单次操作的生命周期状态
type OperationState string

const (
	OperationBuilding  OperationState = "building"
	OperationSubmitted OperationState = "submitted"
	OperationIncluded  OperationState = "included"
	OperationFailed    OperationState = "failed"
)

// OperationParams 操作参数
//
// 各操作使用的字段：
//   - claim_payout：无参数
//   - mint_nft：To、URI
//   - approve_token：Spender、Amount（十进制字符串，按代币精度换算为最小单位）
type OperationParams struct {
	To      common.Address `json:"to,omitempty"`
	URI     string         `json:"uri,omitempty"`
	Spender common.Address `json:"spender,omitempty"`
	Amount  string         `json:"amount,omitempty"`
}

// Receipt 操作上链回执
type Receipt struct {
	OperationID   string         `json:"operation_id"`
	Kind          OperationKind  `json:"kind"`
	Wallet        common.Address `json:"wallet"`
	UserOpHash    common.Hash    `json:"user_op_hash"`
	TxHash        common.Hash    `json:"tx_hash"`
	Nonce         *big.Int       `json:"nonce"`
	BlockNumber   uint64         `json:"block_number"`
	Success       bool           `json:"success"`
	ActualGasCost *big.Int       `json:"actual_gas_cost,omitempty"`
	ActualGasUsed *big.Int       `json:"actual_gas_used,omitempty"`
	SubmittedAt   time.Time      `json:"submitted_at"`
	IncludedAt    time.Time      `json:"included_at"`
}
