package calculation

import (
	"context"
	"errors"
	"testing"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveCalculation(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := testEngine(t)
	engine.Metrics = NewMetrics(reg)

	_, err := engine.Calculate(baseRequest())
	require.NoError(t, err)

	bad := baseRequest()
	bad.RegularWages = d("-1")
	_, err = engine.Calculate(bad)
	require.Error(t, err)

	late := baseRequest()
	late.PayDate = domain.MustParseDate("2030-01-01")
	_, err = engine.Calculate(late)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(engine.Metrics.calculations.WithLabelValues("ON", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.Metrics.calculations.WithLabelValues("ON", OutcomeInvalidInput)))
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.Metrics.calculations.WithLabelValues("ON", OutcomeNoRule)))

	_, err = engine.RunBatch(context.Background(), []domain.CalculationRequest{baseRequest()}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.Metrics.batches))
}

func TestMetrics_ObserveReload(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	snapshot, err := rules.NewSnapshot(testEditions())
	require.NoError(t, err)

	m.SetEditions(snapshot)
	assert.Equal(t, float64(len(testEditions())), testutil.ToFloat64(m.editions))

	m.ObserveReload(snapshot, nil)
	m.ObserveReload(nil, errors.New("broken"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("installed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("rejected")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCalculation("ON", nil, 0)
		m.ObserveReload(nil, nil)
		m.SetEditions(nil)
		m.observeBatch()
	})
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"success", nil, OutcomeOK},
		{"invalid", invalid("province", "bad"), OutcomeInvalidInput},
		{"no rule", &rules.NoApplicableRuleError{Jurisdiction: domain.Ontario, Family: domain.FamilyHolidayPay}, OutcomeNoRule},
		{"vacation", &BelowMinimumVacationRateError{}, OutcomeBelowMinimumVac},
		{"other", errors.New("boom"), OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Outcome(tt.err))
		})
	}
}
