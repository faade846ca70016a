// Package metrics 定义可注入的观测钩子
//
// 📋 **观测钩子**
//
// 会话管理器在每次状态迁移、合约网关在每个操作步骤调用 Hook。
// 实现位于 internal/core/infrastructure/metrics：Prometheus 指标、日志、事件总线转发，
// 以及组合多个钩子的 Multi。
package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// SessionTransition 一次会话状态迁移
type SessionTransition struct {
	From    types.SessionStatus
	To      types.SessionStatus
	Version uint64
	Err     *types.WalletError // 迁移到 error 时的原因
	At      time.Time
}

// OperationEvent 合约操作的一个步骤
type OperationEvent struct {
	OperationID string
	Kind        types.OperationKind
	State       types.OperationState
	Wallet      common.Address
	Nonce       string // 十进制，未分配时为空
	UserOpHash  common.Hash
	Err         error
	Elapsed     time.Duration // 自操作开始的耗时
	At          time.Time
}

// Hook 观测钩子
//
// 实现必须是并发安全的，且不得阻塞调用方。
type Hook interface {
	// OnSessionTransition 会话状态迁移
	OnSessionTransition(t SessionTransition)

	// OnOperationStep 合约操作步骤
	OnOperationStep(e OperationEvent)
}

// NopHook 空实现
type NopHook struct{}

// OnSessionTransition 实现 Hook
func (NopHook) OnSessionTransition(SessionTransition) {}

// OnOperationStep 实现 Hook
func (NopHook) OnOperationStep(OperationEvent) {}
