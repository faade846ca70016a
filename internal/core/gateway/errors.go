package gateway

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/cosmasken/arcadehub-sub003/internal/core/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// classify 归类错误，并用目标合约的 ABI 重新解码回滚原因
//
// 客户端层不知道调用的是哪个合约，只能解码 Error(string) 与 Panic(uint256)；
// 自定义错误需要在这里结合注册表中的 ABI 才能还原。
func classify(op string, err error, contractABI *abi.ABI) error {
	err = aa.ClassifyError(op, err, contractABI)
	we := types.AsWalletError(err)
	if we == nil || we.Kind != types.ErrKindContractCall || we.Code != types.CodeReverted {
		return err
	}
	data, ok := aa.RevertData(err)
	if !ok {
		return err
	}
	decoded := *we
	decoded.RevertReason = aa.DecodeRevert(data, contractABI)
	return &decoded
}

// nonceRejected Bundler 是否因 nonce 无效拒绝了操作（如 "AA25 invalid account nonce"）
func nonceRejected(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "nonce")
}
