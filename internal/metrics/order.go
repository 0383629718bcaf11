package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records checkout outcomes.
type OrderMetrics struct {
	placed   prometheus.Counter
	lines    prometheus.Counter
	rejected *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_placed_total",
		Help: "Orders committed to the sales ledger.",
	})
	lines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_order_lines_total",
		Help: "Sale records written by committed orders.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_rejected_total",
		Help: "Orders rolled back, by reason.",
	}, []string{"reason"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_order_duration_seconds",
		Help:    "Time spent processing an order transaction.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(placed, lines, rejected, duration)
	return &OrderMetrics{
		placed:   placed,
		lines:    lines,
		rejected: rejected,
		duration: duration,
	}
}

// ObservePlaced records a committed order with its number of lines.
func (m *OrderMetrics) ObservePlaced(lines int, elapsed time.Duration) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
	m.lines.Add(float64(lines))
	m.duration.Observe(elapsed.Seconds())
}

// ObserveRejected records a rolled back order.
func (m *OrderMetrics) ObserveRejected(reason string, elapsed time.Duration) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func normalizeLabel(reason string) string {
	if reason == "" {
		return "unknown"
	}
	return reason
}
