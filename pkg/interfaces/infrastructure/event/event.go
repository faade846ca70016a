// Package event 定义事件总线接口
//
// 会话快照与合约操作进度都通过事件总线分发给 UI 等外部协作者。
package event

import "github.com/cosmasken/arcadehub-sub003/pkg/types"

// EventType 事件类型（主题）
type EventType string

const (
	// EventTypeSessionChanged 会话快照，载荷为 session.Snapshot（会话管理器内部分发给监听者）
	EventTypeSessionChanged EventType = "session.changed"

	// EventTypeSessionTransition 会话状态迁移，载荷为 metrics.SessionTransition（共享总线）
	EventTypeSessionTransition EventType = "session.transition"

	// EventTypeOperationStep 合约操作步骤，载荷为 metrics.OperationEvent
	EventTypeOperationStep EventType = "gateway.operation"
)

// EventHandler 按订阅 ID 管理的处理函数
type EventHandler func(data interface{})

// EventBus 事件总线接口
type EventBus interface {
	// Subscribe 订阅事件（原生处理函数，参数需与 Publish 一致）
	Subscribe(eventType EventType, handler interface{}) error

	// SubscribeAsync 异步订阅事件
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error

	// Unsubscribe 取消原生订阅
	Unsubscribe(eventType EventType, handler interface{}) error

	// SubscribeWithID 订阅并返回订阅 ID，同一主题的处理函数按订阅顺序同步执行
	SubscribeWithID(eventType EventType, handler EventHandler) (types.SubscriptionID, error)

	// UnsubscribeByID 通过订阅 ID 取消订阅
	UnsubscribeByID(id types.SubscriptionID) error

	// Publish 发布事件
	Publish(eventType EventType, args ...interface{})

	// WaitAsync 等待所有异步处理完成
	WaitAsync()

	// HasCallback 检查主题是否有订阅者
	HasCallback(eventType EventType) bool
}
