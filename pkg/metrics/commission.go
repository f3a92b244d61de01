package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CommissionMetrics tracks what the commission engine produces per order.
type CommissionMetrics struct {
	created *prometheus.CounterVec
	amount  *prometheus.CounterVec
	skipped *prometheus.CounterVec
	depth   prometheus.Histogram
}

// NewCommissionMetrics registers engine metrics on the provided registerer.
func NewCommissionMetrics(reg prometheus.Registerer) *CommissionMetrics {
	if reg == nil {
		return &CommissionMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commissions_created_total",
		Help: "Commission rows created, labeled by level.",
	}, []string{"level"})
	amount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commissions_amount_total",
		Help: "Sum of commission amounts created, labeled by level.",
	}, []string{"level"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commissions_skipped_total",
		Help: "Upline slots skipped during the walk, labeled by reason.",
	}, []string{"reason"})
	depth := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "commission_upline_depth",
		Help:    "Number of upline levels credited per paid order.",
		Buckets: []float64{0, 1, 2, 3, 4, 5},
	})
	reg.MustRegister(created, amount, skipped, depth)
	return &CommissionMetrics{
		created: created,
		amount:  amount,
		skipped: skipped,
		depth:   depth,
	}
}

// ObserveCreated records one commission row at the given level.
func (c *CommissionMetrics) ObserveCreated(level string, amount float64) {
	if c == nil || c.created == nil {
		return
	}
	c.created.WithLabelValues(normalizeLabel(level)).Inc()
	c.amount.WithLabelValues(normalizeLabel(level)).Add(amount)
}

// IncSkipped counts an upline slot that earned nothing.
func (c *CommissionMetrics) IncSkipped(reason string) {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveDepth records how far the upline walk credited for one order.
func (c *CommissionMetrics) ObserveDepth(levels int) {
	if c == nil || c.depth == nil {
		return
	}
	c.depth.Observe(float64(levels))
}
