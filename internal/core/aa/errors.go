package aa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// JSON-RPC 错误码
const (
	codeExecutionReverted = 3      // 节点 eth_call / eth_estimateGas 回滚
	codeServerError       = -32000 // 节点通用服务端错误
	codeInternalError     = -32603
	codeBundlerRejectMin  = -32507 // Bundler 校验拒绝区间下界
	codeBundlerRejectMax  = -32500 // Bundler 校验拒绝区间上界
	codeBundlerReverted   = -32521 // Bundler 模拟执行回滚
)

// ClassifyError 将 RPC 层错误归类为 WalletError
//
// 已是 WalletError 的错误原样返回。abis 用于解码自定义 Solidity 错误。
func ClassifyError(op string, err error, abis ...*abi.ABI) error {
	if err == nil {
		return nil
	}
	if types.AsWalletError(err) != nil {
		return err
	}

	if data, ok := RevertData(err); ok {
		return types.NewContractCallError(types.CodeReverted, op, DecodeRevert(data, abis...), err)
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		code := rpcErr.ErrorCode()
		switch {
		case code == codeExecutionReverted || code == codeBundlerReverted:
			return types.NewContractCallError(types.CodeReverted, op, revertReasonFromMessage(rpcErr.Error()), err)
		case code >= codeBundlerRejectMin && code <= codeBundlerRejectMax:
			return types.NewContractCallError(types.CodeRejected, op, rpcErr.Error(), err)
		case code == codeInternalError || code == codeServerError:
			return types.NewNetworkError(types.CodeTransient, op, err)
		default:
			return types.NewNetworkError(types.CodeRPC, op, err)
		}
	}

	if isTransient(err) {
		return types.NewNetworkError(types.CodeTransient, op, err)
	}
	return types.NewNetworkError(types.CodeRPC, op, err)
}

// isTransient 可在提交前重试的传输层错误
func isTransient(err error) bool {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RevertData 从 JSON-RPC 错误的 data 字段提取回滚数据
func RevertData(err error) ([]byte, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	return revertBytes(dataErr.ErrorData())
}

func revertBytes(data interface{}) ([]byte, bool) {
	switch d := data.(type) {
	case string:
		b, err := hexutil.Decode(d)
		if err != nil || len(b) == 0 {
			return nil, false
		}
		return b, true
	case []byte:
		return d, len(d) > 0
	case map[string]interface{}:
		// Bundler 常见格式：{"revertData": "0x..."} 或 {"data": "0x..."}
		for _, key := range []string{"revertData", "data"} {
			if v, ok := d[key]; ok {
				if b, ok := revertBytes(v); ok {
					return b, true
				}
			}
		}
	}
	return nil, false
}

// DecodeRevert 解码回滚数据：Error(string)、Panic(uint256)，以及 abis 中声明的自定义错误
func DecodeRevert(data []byte, abis ...*abi.ABI) string {
	if len(data) == 0 {
		return ""
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason
	}
	if len(data) >= 4 {
		for _, contractABI := range abis {
			if contractABI == nil {
				continue
			}
			for name, abiErr := range contractABI.Errors {
				if !bytes.Equal(abiErr.ID[:4], data[:4]) {
					continue
				}
				values, err := abiErr.Inputs.Unpack(data[4:])
				if err != nil {
					return name
				}
				return formatCustomError(name, values)
			}
		}
	}
	return hexutil.Encode(data)
}

func formatCustomError(name string, values []interface{}) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// revertReasonFromMessage 没有回滚数据时从错误消息中截取原因
func revertReasonFromMessage(msg string) string {
	for _, prefix := range []string{"execution reverted: ", "execution reverted"} {
		if i := strings.Index(msg, prefix); i >= 0 {
			if reason := strings.TrimSpace(msg[i+len(prefix):]); reason != "" {
				return reason
			}
		}
	}
	return msg
}

// DecodeReceiptReason 解码回执中的失败原因（十六进制回滚数据或文本）
func DecodeReceiptReason(reason string, abis ...*abi.ABI) string {
	if reason == "" {
		return "user operation reverted"
	}
	if b, err := hexutil.Decode(reason); err == nil {
		if decoded := DecodeRevert(b, abis...); decoded != "" {
			return decoded
		}
		return "user operation reverted"
	}
	return reason
}
