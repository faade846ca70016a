// Package types 定义会话与合约网关的错误分类
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 错误大类
type ErrorKind string

const (
	ErrKindBridge             ErrorKind = "bridge"
	ErrKindProviderConnection ErrorKind = "provider_connection"
	ErrKindWalletDerivation   ErrorKind = "wallet_derivation"
	ErrKindConcurrentLogin    ErrorKind = "concurrent_login"
	ErrKindSessionNotReady    ErrorKind = "session_not_ready"
	ErrKindContractCall       ErrorKind = "contract_call"
	ErrKindInclusionTimeout   ErrorKind = "inclusion_timeout"
	ErrKindNetwork            ErrorKind = "network"
	ErrKindInvalidParams      ErrorKind = "invalid_params"
)

// ErrorCode 大类下的细分原因
type ErrorCode string

const (
	// 身份提供者
	CodeUserCancelled ErrorCode = "user_cancelled"
	CodeTransport     ErrorCode = "transport"
	CodeSessionReset  ErrorCode = "session_reset"

	// 签名桥接
	CodeDisconnected      ErrorCode = "disconnected"
	CodeMissingCapability ErrorCode = "missing_capability"
	CodeInvalidKey        ErrorCode = "invalid_key"

	// 钱包派生
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeUnreachable   ErrorCode = "unreachable"
	CodeChainMismatch ErrorCode = "chain_mismatch"

	// 合约调用
	CodeReverted ErrorCode = "reverted"
	CodeRejected ErrorCode = "rejected"

	// 网络
	CodeTransient ErrorCode = "transient"
	CodeRPC       ErrorCode = "rpc"
)

// ErrUserCancelled 身份提供者在用户主动取消时返回（可被包装）
var ErrUserCancelled = errors.New("user cancelled login")

// WalletError 会话、钱包派生与合约调用的统一错误
//
// 错误在产生处完成分类，调用方通过 errors.Is(err, types.ErrContractCall) 等哨兵值判断大类，
// 通过 Code 区分细分原因（例如用户取消与传输失败）。
type WalletError struct {
	Kind         ErrorKind // 错误大类
	Code         ErrorCode // 细分原因
	Op           string    // 出错的步骤
	Message      string    // 描述
	RevertReason string    // 解码后的回滚原因（仅 contract_call）
	UserOpHash   string    // 已提交操作的哈希（inclusion_timeout 时用于复查）
	Err          error     // 底层错误
}

// Error 实现 error 接口
func (e *WalletError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		b.WriteString("(" + string(e.Code) + ")")
	}
	if e.Op != "" {
		b.WriteString(" " + e.Op)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.RevertReason != "" {
		b.WriteString(": reverted: " + e.RevertReason)
	}
	if e.UserOpHash != "" {
		b.WriteString(" [userOpHash=" + e.UserOpHash + "]")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap 返回底层错误
func (e *WalletError) Unwrap() error {
	return e.Err
}

// Is 按大类匹配；目标带 Code 时同时匹配 Code
func (e *WalletError) Is(target error) bool {
	t, ok := target.(*WalletError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// 哨兵错误，用于 errors.Is 判断
var (
	ErrBridge             = &WalletError{Kind: ErrKindBridge}
	ErrProviderConnection = &WalletError{Kind: ErrKindProviderConnection}
	ErrWalletDerivation   = &WalletError{Kind: ErrKindWalletDerivation}
	ErrConcurrentLogin    = &WalletError{Kind: ErrKindConcurrentLogin}
	ErrSessionNotReady    = &WalletError{Kind: ErrKindSessionNotReady}
	ErrContractCall       = &WalletError{Kind: ErrKindContractCall}
	ErrInclusionTimeout   = &WalletError{Kind: ErrKindInclusionTimeout}
	ErrNetwork            = &WalletError{Kind: ErrKindNetwork}
	ErrInvalidParams      = &WalletError{Kind: ErrKindInvalidParams}
)

// NewBridgeError 创建签名桥接错误
func NewBridgeError(code ErrorCode, msg string, err error) *WalletError {
	return &WalletError{Kind: ErrKindBridge, Code: code, Op: "to_signer", Message: msg, Err: err}
}

// NewProviderConnectionError 创建身份提供者连接错误
func NewProviderConnectionError(code ErrorCode, op string, err error) *WalletError {
	return &WalletError{Kind: ErrKindProviderConnection, Code: code, Op: op, Err: err}
}

// NewWalletDerivationError 创建钱包派生错误
func NewWalletDerivationError(code ErrorCode, msg string, err error) *WalletError {
	return &WalletError{Kind: ErrKindWalletDerivation, Code: code, Op: "resolve", Message: msg, Err: err}
}

// NewConcurrentLoginError 创建并发登录错误
func NewConcurrentLoginError(status SessionStatus) *WalletError {
	return &WalletError{
		Kind:    ErrKindConcurrentLogin,
		Op:      "login",
		Message: fmt.Sprintf("login already in progress (status=%s)", status),
	}
}

// NewSessionNotReadyError 创建会话未就绪错误
func NewSessionNotReadyError(status SessionStatus) *WalletError {
	return &WalletError{
		Kind:    ErrKindSessionNotReady,
		Op:      "execute",
		Message: fmt.Sprintf("session is %s", status),
	}
}

// NewContractCallError 创建合约调用错误
func NewContractCallError(code ErrorCode, op, reason string, err error) *WalletError {
	return &WalletError{Kind: ErrKindContractCall, Code: code, Op: op, RevertReason: reason, Err: err}
}

// NewInclusionTimeoutError 创建等待上链超时错误
func NewInclusionTimeoutError(userOpHash string, err error) *WalletError {
	return &WalletError{
		Kind:       ErrKindInclusionTimeout,
		Op:         "await_inclusion",
		Message:    "outcome unknown, query status before resubmitting",
		UserOpHash: userOpHash,
		Err:        err,
	}
}

// NewNetworkError 创建网络错误
func NewNetworkError(code ErrorCode, op string, err error) *WalletError {
	return &WalletError{Kind: ErrKindNetwork, Code: code, Op: op, Err: err}
}

// NewInvalidParamsError 创建参数错误
func NewInvalidParamsError(op, msg string, err error) *WalletError {
	return &WalletError{Kind: ErrKindInvalidParams, Op: op, Message: msg, Err: err}
}

// AsWalletError 提取 *WalletError；不是时返回 nil
func AsWalletError(err error) *WalletError {
	var we *WalletError
	if errors.As(err, &we) {
		return we
	}
	return nil
}

// KindOf 返回错误大类；非 WalletError 返回空串
func KindOf(err error) ErrorKind {
	if we := AsWalletError(err); we != nil {
		return we.Kind
	}
	return ""
}

// IsTransient 是否为可在提交前重试的瞬时网络错误
func IsTransient(err error) bool {
	we := AsWalletError(err)
	return we != nil && we.Kind == ErrKindNetwork && we.Code == CodeTransient
}
