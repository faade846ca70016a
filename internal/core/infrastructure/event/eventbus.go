// Package event 基于 asaskevich/EventBus 的事件总线实现
//
// 除原生的反射式订阅外，提供按订阅 ID 管理的处理函数：
// 每个主题在底层总线上只挂一个分发器，分发器按订阅顺序同步调用各处理函数。
// 底层总线在同步分发期间持有内部锁，因此分发器一经安装便不再移除，
// 处理函数可以在回调中安全地取消自身订阅。
package event

import (
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	eventconfig "github.com/cosmasken/arcadehub-sub003/internal/config/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// EventBus 事件总线
type EventBus struct {
	bus    evbus.Bus           // 底层事件总线
	config *eventconfig.Config // 配置
	logger log.Logger          // 可为 nil

	mu     sync.RWMutex
	topics map[event.EventType]*topic
	index  map[types.SubscriptionID]event.EventType
}

// topic 单个主题的 ID 订阅表
type topic struct {
	order    []types.SubscriptionID
	handlers map[types.SubscriptionID]event.EventHandler
}

// New 创建事件总线实例
func New(config *eventconfig.Config) *EventBus {
	if config == nil {
		config = eventconfig.New(nil)
	}
	return &EventBus{
		bus:    evbus.New(),
		config: config,
		topics: make(map[event.EventType]*topic),
		index:  make(map[types.SubscriptionID]event.EventType),
	}
}

// WithLogger 设置处理函数 panic 时使用的日志记录器
func (eb *EventBus) WithLogger(logger log.Logger) *EventBus {
	eb.logger = logger
	return eb
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil // 如果事件系统未启用，静默成功
	}
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// Unsubscribe 取消原生订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// SubscribeWithID 订阅并返回订阅 ID
func (eb *EventBus) SubscribeWithID(eventType event.EventType, handler event.EventHandler) (types.SubscriptionID, error) {
	if handler == nil {
		return "", fmt.Errorf("handler cannot be nil")
	}

	eb.mu.Lock()
	t, exists := eb.topics[eventType]
	if !exists {
		t = &topic{handlers: make(map[types.SubscriptionID]event.EventHandler)}
		eb.topics[eventType] = t
	}
	id := types.SubscriptionID(uuid.NewString())
	t.order = append(t.order, id)
	t.handlers[id] = handler
	eb.index[id] = eventType
	eb.mu.Unlock()

	if !exists {
		dispatch := func(data interface{}) { eb.dispatch(eventType, data) }
		if err := eb.bus.Subscribe(string(eventType), dispatch); err != nil {
			eb.mu.Lock()
			delete(eb.topics, eventType)
			delete(eb.index, id)
			eb.mu.Unlock()
			return "", fmt.Errorf("subscribe dispatcher for %s: %w", eventType, err)
		}
	}
	return id, nil
}

// UnsubscribeByID 通过订阅 ID 取消订阅，可在处理函数内部调用
func (eb *EventBus) UnsubscribeByID(id types.SubscriptionID) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eventType, exists := eb.index[id]
	if !exists {
		return fmt.Errorf("subscription not found: %s", id)
	}
	delete(eb.index, id)

	t := eb.topics[eventType]
	delete(t.handlers, id)
	for i, sid := range t.order {
		if sid == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// dispatch 按订阅顺序调用主题下的处理函数
func (eb *EventBus) dispatch(eventType event.EventType, data interface{}) {
	eb.mu.RLock()
	t := eb.topics[eventType]
	var handlers []event.EventHandler
	if t != nil {
		handlers = make([]event.EventHandler, 0, len(t.order))
		for _, id := range t.order {
			handlers = append(handlers, t.handlers[id])
		}
	}
	eb.mu.RUnlock()

	for _, h := range handlers {
		eb.invoke(eventType, h, data)
	}
}

// invoke 调用单个处理函数，panic 不影响其余订阅者
func (eb *EventBus) invoke(eventType event.EventType, h event.EventHandler, data interface{}) {
	defer func() {
		if r := recover(); r != nil && eb.logger != nil {
			eb.logger.Errorf("事件处理函数 panic: topic=%s, err=%v", eventType, r)
		}
	}()
	h(data)
}

// Publish 实现发布
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	if !eb.config.IsEnabled() {
		return
	}
	eb.bus.Publish(string(eventType), args...)
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	if !eb.config.IsEnabled() {
		return
	}
	eb.bus.WaitAsync()
}

// HasCallback 检查主题是否有订阅者
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	if !eb.config.IsEnabled() {
		return false
	}
	eb.mu.RLock()
	t := eb.topics[eventType]
	hasID := t != nil && len(t.order) > 0
	eb.mu.RUnlock()
	if hasID {
		return true
	}
	// 仅有分发器时视为无订阅者
	if t != nil {
		return false
	}
	return eb.bus.HasCallback(string(eventType))
}

var _ event.EventBus = (*EventBus)(nil)
