package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-wallet/internal/app/core/domain"
)

const namespace = "mem_wallet"

// Metrics 錢包業務指標與 RPC 指標
type Metrics struct {
	WalletsOpened     prometheus.Counter
	MovementsAccepted *prometheus.CounterVec
	MovementAmount    *prometheus.CounterVec
	MovementsRejected *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
	RPCRateLimited    *prometheus.CounterVec
}

// NewMetrics 建立並註冊所有指標
//
// 參數:
//
//	reg: 註冊目標，測試時傳入 prometheus.NewRegistry()，正式環境傳入 prometheus.DefaultRegisterer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WalletsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wallets_opened_total",
				Help:      "Wallets opened",
			},
		),
		MovementsAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "movements_accepted_total",
				Help:      "Accepted movements by kind",
			},
			[]string{"kind"},
		),
		MovementAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "movement_amount_total",
				Help:      "Sum of accepted movement amounts by kind",
			},
			[]string{"kind"},
		),
		MovementsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "movements_rejected_total",
				Help:      "Rejected movements by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		RPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_duration_seconds",
				Help:      "Duration of gRPC calls in seconds",
				Buckets: []float64{
					0.0005, // < 0.5ms
					0.001,  // < 1ms
					0.005,  // < 5ms
					0.01,   // < 10ms
					0.05,   // < 50ms
					0.1,    // < 100ms
					0.5,    // < 500ms
					1,      // < 1s
				},
			},
			[]string{"method", "code"},
		),
		RPCRateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_rate_limited_total",
				Help:      "gRPC calls refused by the rate limiter",
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) WalletOpened() {
	m.WalletsOpened.Inc()
}

func (m *Metrics) MovementAccepted(kind domain.MovementKind, amount decimal.Decimal) {
	m.MovementsAccepted.WithLabelValues(kind.String()).Inc()
	m.MovementAmount.WithLabelValues(kind.String()).Add(amount.InexactFloat64())
}

func (m *Metrics) MovementRejected(kind domain.MovementKind, reason string) {
	m.MovementsRejected.WithLabelValues(kind.String(), reason).Inc()
}

// ObserveRPC 記錄一次 RPC 的耗時
func (m *Metrics) ObserveRPC(method, code string, d time.Duration) {
	m.RPCDuration.WithLabelValues(method, code).Observe(d.Seconds())
}

// RateLimited 記錄一次被限流的 RPC
func (m *Metrics) RateLimited(method string) {
	m.RPCRateLimited.WithLabelValues(method).Inc()
}
