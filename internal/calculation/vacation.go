package calculation

import (
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

// MinimumVacationRate returns the rate of the highest tier whose service
// threshold does not exceed yearsOfService
func MinimumVacationRate(table domain.VacationMinimumTable, yearsOfService int) decimal.Decimal {
	rate := decimal.Zero
	for _, tier := range table.Tiers {
		if tier.YearsOfService > yearsOfService {
			break
		}
		rate = tier.EffectiveRate()
	}
	return rate
}

// EffectiveVacationRate returns the override when it is at least the minimum,
// the minimum when there is no override, and BelowMinimumVacationRateError otherwise.
// Employers may pay more than the minimum, never less.
func EffectiveVacationRate(j domain.Jurisdiction, table domain.VacationMinimumTable, yearsOfService int, override *decimal.Decimal) (decimal.Decimal, error) {
	minimum := MinimumVacationRate(table, yearsOfService)
	if override == nil {
		return minimum, nil
	}
	if override.LessThan(minimum) {
		return decimal.Zero, &BelowMinimumVacationRateError{
			Jurisdiction:   j,
			YearsOfService: yearsOfService,
			Minimum:        minimum,
			Override:       *override,
		}
	}
	return *override, nil
}

// VacationPay is round(vacationable earnings × rate)
func VacationPay(earnings, rate decimal.Decimal) decimal.Decimal {
	return roundCents(floorZero(earnings).Mul(rate))
}
