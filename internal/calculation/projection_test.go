package calculation

import (
	"errors"
	"testing"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPayDate(t *testing.T) {
	tests := []struct {
		freq domain.PayFrequency
		from string
		want string
	}{
		{domain.Weekly, "2025-01-03", "2025-01-10"},
		{domain.Biweekly, "2025-12-26", "2026-01-09"},
		{domain.SemiMonthly, "2025-02-10", "2025-02-15"},
		{domain.SemiMonthly, "2025-02-15", "2025-02-28"},
		{domain.SemiMonthly, "2025-02-28", "2025-03-15"},
		{domain.SemiMonthly, "2024-02-15", "2024-02-29"},
		{domain.SemiMonthly, "2025-12-31", "2026-01-15"},
		{domain.Monthly, "2025-01-15", "2025-02-15"},
		{domain.Monthly, "2025-01-31", "2025-02-28"},
		{domain.Monthly, "2025-02-28", "2025-03-31"},
		{domain.Monthly, "2025-01-30", "2025-02-28"},
		{domain.Monthly, "2025-12-31", "2026-01-31"},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq)+" "+tt.from, func(t *testing.T) {
			got := NextPayDate(tt.freq, domain.MustParseDate(tt.from))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEngine_ProjectYear(t *testing.T) {
	engine := testEngine(t)

	proj, err := engine.ProjectYear(baseRequest())
	require.NoError(t, err)

	assert.Equal(t, "E-100", proj.EmployeeID)
	assert.Equal(t, 2025, proj.Year)
	require.Len(t, proj.Periods, 10, "March through December")
	assert.Equal(t, "2025-03-31", proj.Periods[0].PayDate.String())
	assert.Equal(t, "2025-04-30", proj.Periods[1].PayDate.String())
	assert.Equal(t, "2025-12-31", proj.Periods[9].PayDate.String())

	assert.Equal(t, "50000.00", proj.Totals.GrossEarnings.StringFixed(2))
	assert.True(t, proj.Totals.CPP.Equal(proj.Periods[9].YTD.CPP))

	first, err := engine.Calculate(baseRequest())
	require.NoError(t, err)
	assert.Equal(t, first, proj.Periods[0], "the first period is the request itself")
}

func TestEngine_ProjectYearReachesMaximums(t *testing.T) {
	engine := testEngine(t)
	limits := testContributionRules()

	req := baseRequest()
	req.PayDate = domain.MustParseDate("2025-01-31")
	req.RegularWages = d("10000")

	proj, err := engine.ProjectYear(req)
	require.NoError(t, err)
	require.Len(t, proj.Periods, 12)

	cpp := d("0")
	for _, p := range proj.Periods {
		cpp = cpp.Add(p.CPP)
	}
	assert.True(t, cpp.Equal(proj.Totals.CPP))
	assert.True(t, proj.Totals.CPP.Equal(limits.CPP.MaxContribution))
	assert.Equal(t, "4034.10", proj.Totals.CPP.StringFixed(2))
	assert.Equal(t, "396.00", proj.Totals.CPP2.StringFixed(2))
	assert.Equal(t, "1077.48", proj.Totals.EI.StringFixed(2))
	assert.True(t, proj.Periods[11].CPP.IsZero(), "maximum already reached")
}

func TestEngine_ProjectYearHolidays(t *testing.T) {
	engine := testEngine(t)

	req := domain.CalculationRequest{
		EmployeeID:   "SK-1",
		Province:     domain.Saskatchewan,
		PayFrequency: domain.Biweekly,
		PayDate:      domain.MustParseDate("2025-04-25"),
		HireDate:     domain.MustParseDate("2024-06-01"),
		RegularWages: d("2800"),
		Holidays: []domain.Date{
			domain.MustParseDate("2025-04-18"),
			domain.MustParseDate("2025-05-19"),
			domain.MustParseDate("2026-01-01"),
		},
		WageHistory: []domain.WageEntry{
			entry("2025-03-28", "1400", "0", 10),
			entry("2025-04-11", "1400", "0", 10),
		},
	}

	proj, err := engine.ProjectYear(req)
	require.NoError(t, err)

	var paid []string
	for _, p := range proj.Periods {
		for _, line := range p.HolidayLines {
			paid = append(paid, p.PayDate.String()+"/"+line.Date.String())
		}
	}
	assert.Equal(t, []string{"2025-04-25/2025-04-18", "2025-05-23/2025-05-19"}, paid)
	assert.Equal(t, "140.00", proj.Periods[0].HolidayPay.StringFixed(2))
	assert.True(t, proj.Periods[2].HolidayPay.IsPositive(), "projected periods feed the lookback")
	assert.Len(t, req.WageHistory, 2, "caller history is not modified")
}

func TestEngine_ProjectYearErrors(t *testing.T) {
	engine := testEngine(t)

	bad := baseRequest()
	bad.PayFrequency = "fortnightly"
	_, err := engine.ProjectYear(bad)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	late := baseRequest()
	late.PayDate = domain.MustParseDate("2026-02-27")
	_, err = engine.ProjectYear(late)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrNoApplicableRule))
	assert.Contains(t, err.Error(), "pay period 1 (2026-02-27)")
}

func TestHolidaysBetween(t *testing.T) {
	hs := []domain.Date{
		domain.MustParseDate("2025-01-01"),
		domain.MustParseDate("2025-02-17"),
		domain.MustParseDate("2025-04-18"),
	}
	after := domain.MustParseDate("2025-01-01")

	assert.Len(t, holidaysBetween(hs, nil, domain.MustParseDate("2025-02-17")), 2)
	assert.Len(t, holidaysBetween(hs, &after, domain.MustParseDate("2025-02-17")), 1)
	assert.Empty(t, holidaysBetween(hs, &after, domain.MustParseDate("2025-02-16")))
}
