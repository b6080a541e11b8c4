package calculation

import (
	"errors"
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
	"github.com/prometheus/client_golang/prometheus"
)

// Calculation outcomes used as metric labels
const (
	OutcomeOK              = "ok"
	OutcomeInvalidInput    = "invalid_input"
	OutcomeNoRule          = "no_rule"
	OutcomeBelowMinimumVac = "below_minimum_vacation_rate"
	OutcomeError           = "error"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	reloads      *prometheus.CounterVec
	editions     prometheus.Gauge
	batches      prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg (if non-nil)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payroll",
			Name:      "calculations_total",
			Help:      "Pay-period calculations by province and outcome.",
		}, []string{"province", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "payroll",
			Name:      "calculation_duration_seconds",
			Help:      "Time spent in a single pay-period calculation.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}, []string{"province"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payroll",
			Name:      "rule_reloads_total",
			Help:      "Rule set reload attempts by result.",
		}, []string{"result"}),
		editions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "payroll",
			Name:      "rule_editions_loaded",
			Help:      "Number of rule editions in the live snapshot.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "payroll",
			Name:      "batches_total",
			Help:      "Batch runs started.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.calculations, m.duration, m.reloads, m.editions, m.batches)
	}
	return m
}

// ObserveCalculation records one calculation
func (m *Metrics) ObserveCalculation(province string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(province, Outcome(err)).Inc()
	m.duration.WithLabelValues(province).Observe(elapsed.Seconds())
}

// ObserveReload records a reload attempt; it matches rules.ReloadFunc
func (m *Metrics) ObserveReload(snapshot *rules.Snapshot, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloads.WithLabelValues("rejected").Inc()
		return
	}
	m.reloads.WithLabelValues("installed").Inc()
	m.editions.Set(float64(snapshot.Len()))
}

// SetEditions records the size of the initial snapshot
func (m *Metrics) SetEditions(snapshot *rules.Snapshot) {
	if m == nil {
		return
	}
	m.editions.Set(float64(snapshot.Len()))
}

func (m *Metrics) observeBatch() {
	if m == nil {
		return
	}
	m.batches.Inc()
}

// Outcome classifies an engine error for metrics and API responses
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, rules.ErrNoApplicableRule):
		return OutcomeNoRule
	case errors.Is(err, ErrBelowMinimumVacationRate):
		return OutcomeBelowMinimumVac
	default:
		return OutcomeError
	}
}
