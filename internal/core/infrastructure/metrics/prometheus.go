package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	metricsIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/metrics"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// 会话与合约网关 Prometheus 指标
//
// 使用默认 Registry，由 CLI 的 --metrics-addr 统一通过 /metrics 暴露。

var (
	registerOnce sync.Once

	sessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcade",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by source and target status.",
		},
		[]string{"from", "to"},
	)

	sessionStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "arcade",
			Subsystem: "session",
			Name:      "status",
			Help:      "Current session status (1 for the active status label, 0 for others).",
		},
		[]string{"status"},
	)

	sessionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcade",
			Subsystem: "session",
			Name:      "errors_total",
			Help:      "Session failures by error kind and code.",
		},
		[]string{"kind", "code"},
	)

	operationStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcade",
			Subsystem: "gateway",
			Name:      "operation_steps_total",
			Help:      "Contract operation steps by operation kind and state.",
		},
		[]string{"kind", "state"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arcade",
			Subsystem: "gateway",
			Name:      "operation_duration_seconds",
			Help:      "Time from building to a terminal state (included or failed).",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"kind", "state"},
	)

	operationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcade",
			Subsystem: "gateway",
			Name:      "operation_errors_total",
			Help:      "Failed contract operations by operation kind and error kind.",
		},
		[]string{"kind", "error_kind"},
	)
)

// registerMetrics 在首次使用时注册指标
func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			sessionTransitionsTotal,
			sessionStatusGauge,
			sessionErrorsTotal,
			operationStepsTotal,
			operationDuration,
			operationErrorsTotal,
		)
	})
}

// PrometheusHook 将会话迁移与操作步骤记录为 Prometheus 指标
type PrometheusHook struct{}

// NewPrometheusHook 创建 Prometheus 钩子
func NewPrometheusHook() *PrometheusHook {
	registerMetrics()
	return &PrometheusHook{}
}

// OnSessionTransition 实现 Hook
func (h *PrometheusHook) OnSessionTransition(t metricsIface.SessionTransition) {
	sessionTransitionsTotal.WithLabelValues(string(t.From), string(t.To)).Inc()
	for _, s := range []types.SessionStatus{
		types.SessionIdle, types.SessionInitializing, types.SessionAwaitingProvider,
		types.SessionProviderConnected, types.SessionDerivingWallet, types.SessionReady, types.SessionError,
	} {
		v := 0.0
		if s == t.To {
			v = 1
		}
		sessionStatusGauge.WithLabelValues(string(s)).Set(v)
	}
	if t.Err != nil {
		sessionErrorsTotal.WithLabelValues(string(t.Err.Kind), string(t.Err.Code)).Inc()
	}
}

// OnOperationStep 实现 Hook
func (h *PrometheusHook) OnOperationStep(e metricsIface.OperationEvent) {
	kind, state := string(e.Kind), string(e.State)
	operationStepsTotal.WithLabelValues(kind, state).Inc()

	switch e.State {
	case types.OperationIncluded:
		operationDuration.WithLabelValues(kind, state).Observe(e.Elapsed.Seconds())
	case types.OperationFailed:
		operationDuration.WithLabelValues(kind, state).Observe(e.Elapsed.Seconds())
		errKind := string(types.KindOf(e.Err))
		if errKind == "" {
			errKind = "unknown"
		}
		operationErrorsTotal.WithLabelValues(kind, errKind).Inc()
	}
}

var _ metricsIface.Hook = (*PrometheusHook)(nil)
