package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventconfig "github.com/cosmasken/arcadehub-sub003/internal/config/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// TestEventBus 原生订阅、异步订阅与取消订阅
func TestEventBus(t *testing.T) {
	eventBus := New(eventconfig.New(nil))

	var receivedData string
	handler := func(data string) {
		receivedData = data
	}
	require.NoError(t, eventBus.Subscribe(event.EventType("test-event"), handler))
	eventBus.Publish(event.EventType("test-event"), "hello world")
	assert.Equal(t, "hello world", receivedData)

	var asyncData string
	var asyncWg sync.WaitGroup
	asyncWg.Add(1)
	asyncHandler := func(data string) {
		time.Sleep(20 * time.Millisecond)
		asyncData = data
		asyncWg.Done()
	}
	require.NoError(t, eventBus.SubscribeAsync(event.EventType("async-event"), asyncHandler, false))
	eventBus.Publish(event.EventType("async-event"), "async data")
	eventBus.WaitAsync()
	asyncWg.Wait()
	assert.Equal(t, "async data", asyncData)

	require.NoError(t, eventBus.Unsubscribe(event.EventType("test-event"), handler))
	receivedData = ""
	eventBus.Publish(event.EventType("test-event"), "should not receive")
	assert.Empty(t, receivedData)
}

func TestSubscribeWithID_OrderAndUnsubscribe(t *testing.T) {
	eventBus := New(nil)
	topic := event.EventTypeSessionChanged

	var got []string
	first, err := eventBus.SubscribeWithID(topic, func(data interface{}) { got = append(got, "a:"+data.(string)) })
	require.NoError(t, err)
	_, err = eventBus.SubscribeWithID(topic, func(data interface{}) { got = append(got, "b:"+data.(string)) })
	require.NoError(t, err)
	assert.True(t, eventBus.HasCallback(topic))

	eventBus.Publish(topic, "1")
	assert.Equal(t, []string{"a:1", "b:1"}, got)

	require.NoError(t, eventBus.UnsubscribeByID(first))
	eventBus.Publish(topic, "2")
	assert.Equal(t, []string{"a:1", "b:1", "b:2"}, got)

	assert.Error(t, eventBus.UnsubscribeByID(first), "重复取消应报错")
	assert.Error(t, eventBus.UnsubscribeByID(types.SubscriptionID("missing")))
}

func TestSubscribeWithID_UnsubscribeInsideHandler(t *testing.T) {
	eventBus := New(nil)
	topic := event.EventTypeOperationStep

	calls := 0
	var id types.SubscriptionID
	id, err := eventBus.SubscribeWithID(topic, func(interface{}) {
		calls++
		require.NoError(t, eventBus.UnsubscribeByID(id))
	})
	require.NoError(t, err)

	eventBus.Publish(topic, "x")
	eventBus.Publish(topic, "y")
	assert.Equal(t, 1, calls)
	assert.False(t, eventBus.HasCallback(topic))
}

func TestSubscribeWithID_PanicIsolated(t *testing.T) {
	eventBus := New(nil)
	topic := event.EventType("panic-topic")

	_, err := eventBus.SubscribeWithID(topic, func(interface{}) { panic("boom") })
	require.NoError(t, err)
	delivered := false
	_, err = eventBus.SubscribeWithID(topic, func(interface{}) { delivered = true })
	require.NoError(t, err)

	assert.NotPanics(t, func() { eventBus.Publish(topic, nil) })
	assert.True(t, delivered)
}

func TestDisabledBus(t *testing.T) {
	disabled := false
	eventBus := New(eventconfig.New(&types.UserEventConfig{Enabled: &disabled}))

	called := false
	_, err := eventBus.SubscribeWithID(event.EventTypeSessionChanged, func(interface{}) { called = true })
	require.NoError(t, err)
	eventBus.Publish(event.EventTypeSessionChanged, "x")
	assert.False(t, called)
	assert.False(t, eventBus.HasCallback(event.EventTypeSessionChanged))
}

func TestSubscribeWithID_NilHandler(t *testing.T) {
	_, err := New(nil).SubscribeWithID(event.EventTypeSessionChanged, nil)
	assert.Error(t, err)
}
