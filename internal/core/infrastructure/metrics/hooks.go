package metrics

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	metricsIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// LogHook 以结构化日志记录迁移与操作步骤
type LogHook struct {
	sessionLog    log.Logger
	operationsLog log.Logger
}

// NewLogHook 创建日志钩子，会话与操作分别写入对应模块
func NewLogHook(logger log.Logger) *LogHook {
	return &LogHook{
		sessionLog:    logger.With("module", "session"),
		operationsLog: logger.With("module", "gateway"),
	}
}

// OnSessionTransition 实现 Hook
func (h *LogHook) OnSessionTransition(t metricsIface.SessionTransition) {
	l := h.sessionLog.With("from", string(t.From), "to", string(t.To), "version", t.Version)
	if t.Err != nil {
		l.With("error_kind", string(t.Err.Kind), "error_code", string(t.Err.Code)).
			Warnf("会话进入错误状态: %v", t.Err)
		return
	}
	l.Debug("会话状态迁移")
}

// OnOperationStep 实现 Hook
func (h *LogHook) OnOperationStep(e metricsIface.OperationEvent) {
	l := h.operationsLog.With(
		"operation_id", e.OperationID,
		"kind", string(e.Kind),
		"state", string(e.State),
		"wallet", e.Wallet.Hex(),
		"elapsed", e.Elapsed.String(),
	)
	if e.Nonce != "" {
		l = l.With("nonce", e.Nonce)
	}
	if e.UserOpHash != (common.Hash{}) {
		l = l.With("user_op_hash", e.UserOpHash.Hex())
	}

	switch e.State {
	case types.OperationFailed:
		l.With("error_kind", string(types.KindOf(e.Err))).Errorf("合约操作失败: %v", e.Err)
	case types.OperationIncluded:
		l.Info("合约操作已上链")
	default:
		l.Debug("合约操作步骤")
	}
}

// EventHook 将迁移与操作步骤转发到共享事件总线
type EventHook struct {
	bus event.EventBus
}

// NewEventHook 创建事件转发钩子
func NewEventHook(bus event.EventBus) *EventHook {
	return &EventHook{bus: bus}
}

// OnSessionTransition 实现 Hook
func (h *EventHook) OnSessionTransition(t metricsIface.SessionTransition) {
	h.bus.Publish(event.EventTypeSessionTransition, t)
}

// OnOperationStep 实现 Hook
func (h *EventHook) OnOperationStep(e metricsIface.OperationEvent) {
	h.bus.Publish(event.EventTypeOperationStep, e)
}

// Multi 依次调用多个钩子
type Multi []metricsIface.Hook

// OnSessionTransition 实现 Hook
func (m Multi) OnSessionTransition(t metricsIface.SessionTransition) {
	for _, h := range m {
		h.OnSessionTransition(t)
	}
}

// OnOperationStep 实现 Hook
func (m Multi) OnOperationStep(e metricsIface.OperationEvent) {
	for _, h := range m {
		h.OnOperationStep(e)
	}
}

var (
	_ metricsIface.Hook = (*LogHook)(nil)
	_ metricsIface.Hook = (*EventHook)(nil)
	_ metricsIface.Hook = Multi(nil)
)
