package calculation

import (
	"fmt"
	"sort"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

// holidayFormula computes unrounded pay for one holiday from the wage entries
// inside its lookback window
type holidayFormula func(window []domain.WageEntry, spec domain.HolidayPayFormulaSpec) decimal.Decimal

// holidayFormulas is the closed set of supported formulas, keyed by kind
var holidayFormulas = map[domain.HolidayFormulaKind]holidayFormula{
	domain.HolidayPercentOfWages:      percentOfWages,
	domain.HolidayAverageFixedDivisor: averageFixedDivisor,
	domain.HolidayAverageDaysWorked:   averageDaysWorked,
}

// HolidayPay computes the pay for one general holiday, rounded to the cent
func HolidayPay(history []domain.WageEntry, holiday domain.Date, spec domain.HolidayPayFormulaSpec) (decimal.Decimal, error) {
	formula, ok := holidayFormulas[spec.Kind]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported holiday pay formula %q", spec.Kind)
	}
	window := LookbackWindow(history, holiday, spec.Lookback)
	return roundCents(floorZero(formula(window, spec))), nil
}

// HolidayPayForPeriod computes each holiday separately and returns the lines and their sum
func HolidayPayForPeriod(history []domain.WageEntry, holidays []domain.Date, spec domain.HolidayPayFormulaSpec) ([]domain.HolidayPayLine, decimal.Decimal, error) {
	total := decimal.Zero
	lines := make([]domain.HolidayPayLine, 0, len(holidays))
	for _, h := range holidays {
		amount, err := HolidayPay(history, h, spec)
		if err != nil {
			return nil, decimal.Zero, err
		}
		lines = append(lines, domain.HolidayPayLine{Date: h, Amount: amount})
		total = total.Add(amount)
	}
	return lines, total, nil
}

// LookbackWindow selects the wage entries that count toward a holiday.
// Day and week windows take entries whose period end falls in
// [holiday − N days, holiday); pay-period windows take the last N entries
// ending before the holiday. Short histories use what exists.
func LookbackWindow(history []domain.WageEntry, holiday domain.Date, lookback domain.Lookback) []domain.WageEntry {
	var before []domain.WageEntry
	for _, e := range history {
		if e.PeriodEnd.Before(holiday) {
			before = append(before, e)
		}
	}

	switch lookback.Unit {
	case domain.LookbackPayPeriods:
		sort.SliceStable(before, func(i, j int) bool { return before[i].PeriodEnd.Before(before[j].PeriodEnd) })
		if len(before) > lookback.Length {
			before = before[len(before)-lookback.Length:]
		}
		return before

	default:
		days := lookback.Length
		if lookback.Unit == domain.LookbackWeeks {
			days *= 7
		}
		start := holiday.AddDays(-days)
		var window []domain.WageEntry
		for _, e := range before {
			if !e.PeriodEnd.Before(start) {
				window = append(window, e)
			}
		}
		return window
	}
}

func windowWages(window []domain.WageEntry, includeVacationPay bool) decimal.Decimal {
	total := decimal.Zero
	for _, e := range window {
		total = total.Add(e.Wages)
		if includeVacationPay {
			total = total.Add(e.VacationPay)
		}
	}
	return total
}

// percentOfWages: rate × wages in the window ("5% of 28 days")
func percentOfWages(window []domain.WageEntry, spec domain.HolidayPayFormulaSpec) decimal.Decimal {
	return windowWages(window, spec.IncludeVacationPay).Mul(spec.Rate)
}

// averageFixedDivisor: wages in the window ÷ a fixed divisor, never recomputed from history length
func averageFixedDivisor(window []domain.WageEntry, spec domain.HolidayPayFormulaSpec) decimal.Decimal {
	return windowWages(window, spec.IncludeVacationPay).Div(spec.Divisor)
}

// averageDaysWorked: wages in the window ÷ days worked in the window, zero when no days were worked
func averageDaysWorked(window []domain.WageEntry, spec domain.HolidayPayFormulaSpec) decimal.Decimal {
	days := 0
	for _, e := range window {
		days += e.DaysWorked
	}
	if days == 0 {
		return decimal.Zero
	}
	return windowWages(window, spec.IncludeVacationPay).Div(decimal.NewFromInt(int64(days)))
}
