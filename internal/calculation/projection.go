package calculation

import (
	"fmt"
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
)

// AnnualProjection is one request run pay by pay through the rest of its
// calendar year
type AnnualProjection struct {
	EmployeeID string                     `json:"employee_id" yaml:"employee_id"`
	Year       int                        `json:"year" yaml:"year"`
	Periods    []domain.CalculationResult `json:"periods" yaml:"periods"`
	Totals     domain.YTD                 `json:"totals" yaml:"totals"`
}

// NextPayDate returns the pay date following d for the given frequency.
// Monthly pay keeps its day of month, clamped to the month end; semi-monthly
// pay alternates between the 15th and the last day of the month.
func NextPayDate(f domain.PayFrequency, d domain.Date) domain.Date {
	switch f {
	case domain.Weekly:
		return d.AddDays(7)
	case domain.Biweekly:
		return d.AddDays(14)
	case domain.SemiMonthly:
		if d.Day() < 15 {
			return domain.NewDate(d.Year(), d.Month(), 15)
		}
		if d.Day() < lastDay(d.Year(), d.Month()) {
			return domain.NewDate(d.Year(), d.Month(), lastDay(d.Year(), d.Month()))
		}
		next := d.AddDays(1)
		return domain.NewDate(next.Year(), next.Month(), 15)
	case domain.Monthly:
		year, month := d.Year(), d.Month()+1
		if month > time.December {
			year, month = year+1, time.January
		}
		day := d.Day()
		if day == lastDay(d.Year(), d.Month()) || day > lastDay(year, month) {
			day = lastDay(year, month)
		}
		return domain.NewDate(year, month, day)
	}
	return d
}

func lastDay(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ProjectYear runs req for its own pay date and every later pay date in the
// same calendar year, all against one snapshot. Each period starts from the
// previous period's YTD, so annual maximums are reached exactly once.
// Holidays are assigned to the first pay date on or after them.
func (e *Engine) ProjectYear(req domain.CalculationRequest) (*AnnualProjection, error) {
	return e.ProjectYearWith(e.source.Snapshot(), req)
}

// ProjectYearWith projects against an explicit snapshot
func (e *Engine) ProjectYearWith(snapshot *rules.Snapshot, req domain.CalculationRequest) (*AnnualProjection, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	year := req.PayDate.Year()
	proj := &AnnualProjection{EmployeeID: req.EmployeeID, Year: year}

	period := req
	var previous *domain.Date
	for payDate := req.PayDate; payDate.Year() == year; payDate = NextPayDate(req.PayFrequency, payDate) {
		period.PayDate = payDate
		period.Holidays = holidaysBetween(req.Holidays, previous, payDate)

		result, err := e.CalculateWith(snapshot, period)
		if err != nil {
			return nil, fmt.Errorf("pay period %d (%s): %w", len(proj.Periods)+1, payDate, err)
		}
		proj.Periods = append(proj.Periods, result)

		period.YTD = result.YTD
		period.WageHistory = append(append([]domain.WageEntry(nil), period.WageHistory...), historyEntry(period, result))
		paid := payDate
		previous = &paid
	}

	proj.Totals = period.YTD
	return proj, nil
}

// holidaysBetween keeps the holidays in (after, upTo]; a nil after is open-ended
func holidaysBetween(holidays []domain.Date, after *domain.Date, upTo domain.Date) []domain.Date {
	var out []domain.Date
	for _, h := range holidays {
		if h.After(upTo) {
			continue
		}
		if after != nil && !h.After(*after) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// historyEntry records a projected period for later holiday lookbacks. Days
// worked carry over from the most recent known entry.
func historyEntry(req domain.CalculationRequest, result domain.CalculationResult) domain.WageEntry {
	entry := domain.WageEntry{
		PeriodEnd: result.PayDate,
		Wages:     req.RegularWages,
	}
	if result.VacationPaidOut {
		entry.VacationPay = result.VacationPay
	}
	if n := len(req.WageHistory); n > 0 {
		entry.DaysWorked = req.WageHistory[n-1].DaysWorked
	}
	return entry
}
