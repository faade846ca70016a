package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventimpl "github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/event"
	"github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/log"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/event"
	metricsIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// recordingHook 记录收到的回调
type recordingHook struct {
	transitions []metricsIface.SessionTransition
	steps       []metricsIface.OperationEvent
}

func (r *recordingHook) OnSessionTransition(t metricsIface.SessionTransition) {
	r.transitions = append(r.transitions, t)
}

func (r *recordingHook) OnOperationStep(e metricsIface.OperationEvent) {
	r.steps = append(r.steps, e)
}

func TestPrometheusHook_SessionTransition(t *testing.T) {
	hook := NewPrometheusHook()

	before := testutil.ToFloat64(sessionTransitionsTotal.WithLabelValues("idle", "initializing"))
	hook.OnSessionTransition(metricsIface.SessionTransition{From: types.SessionIdle, To: types.SessionInitializing})
	after := testutil.ToFloat64(sessionTransitionsTotal.WithLabelValues("idle", "initializing"))
	assert.Equal(t, before+1, after)

	assert.Equal(t, 1.0, testutil.ToFloat64(sessionStatusGauge.WithLabelValues("initializing")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sessionStatusGauge.WithLabelValues("idle")))

	errBefore := testutil.ToFloat64(sessionErrorsTotal.WithLabelValues("provider_connection", "user_cancelled"))
	hook.OnSessionTransition(metricsIface.SessionTransition{
		From: types.SessionAwaitingProvider,
		To:   types.SessionError,
		Err:  types.NewProviderConnectionError(types.CodeUserCancelled, "connect", types.ErrUserCancelled),
	})
	assert.Equal(t, errBefore+1, testutil.ToFloat64(sessionErrorsTotal.WithLabelValues("provider_connection", "user_cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sessionStatusGauge.WithLabelValues("error")))
}

func TestPrometheusHook_OperationFailure(t *testing.T) {
	hook := NewPrometheusHook()

	labels := []string{string(types.OperationMintNFT), "contract_call"}
	before := testutil.ToFloat64(operationErrorsTotal.WithLabelValues(labels...))
	hook.OnOperationStep(metricsIface.OperationEvent{
		Kind:    types.OperationMintNFT,
		State:   types.OperationFailed,
		Err:     types.NewContractCallError(types.CodeReverted, "mintNFT", "not allowed", nil),
		Elapsed: 2 * time.Second,
	})
	assert.Equal(t, before+1, testutil.ToFloat64(operationErrorsTotal.WithLabelValues(labels...)))

	// 非 WalletError 计为 unknown
	unknown := []string{string(types.OperationMintNFT), "unknown"}
	before = testutil.ToFloat64(operationErrorsTotal.WithLabelValues(unknown...))
	hook.OnOperationStep(metricsIface.OperationEvent{
		Kind: types.OperationMintNFT, State: types.OperationFailed, Err: errors.New("boom"),
	})
	assert.Equal(t, before+1, testutil.ToFloat64(operationErrorsTotal.WithLabelValues(unknown...)))
}

func TestEventHook_ForwardsToBus(t *testing.T) {
	bus := eventimpl.New(nil)
	hook := NewEventHook(bus)

	var got []interface{}
	_, err := bus.SubscribeWithID(event.EventTypeOperationStep, func(data interface{}) { got = append(got, data) })
	require.NoError(t, err)
	_, err = bus.SubscribeWithID(event.EventTypeSessionTransition, func(data interface{}) { got = append(got, data) })
	require.NoError(t, err)

	step := metricsIface.OperationEvent{OperationID: "op-1", State: types.OperationSubmitted, UserOpHash: common.HexToHash("0x01")}
	hook.OnOperationStep(step)
	hook.OnSessionTransition(metricsIface.SessionTransition{To: types.SessionReady})

	require.Len(t, got, 2)
	assert.Equal(t, step, got[0])
	assert.Equal(t, types.SessionReady, got[1].(metricsIface.SessionTransition).To)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &recordingHook{}, &recordingHook{}
	m := Multi{a, b, NewLogHook(log.NewNop())}

	m.OnSessionTransition(metricsIface.SessionTransition{To: types.SessionReady})
	m.OnOperationStep(metricsIface.OperationEvent{State: types.OperationIncluded})

	for _, r := range []*recordingHook{a, b} {
		assert.Len(t, r.transitions, 1)
		assert.Len(t, r.steps, 1)
	}
}
