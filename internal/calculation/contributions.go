package calculation

import (
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

// ContributionInput is what the contribution calculator needs for one period
type ContributionInput struct {
	PeriodsPerYear      int
	PensionableEarnings decimal.Decimal
	InsurableEarnings   decimal.Decimal
	YTD                 domain.YTD
	CPPExempt           bool
	EIExempt            bool
}

// Contributions holds employee and employer CPP, CPP2 and EI for one period
type Contributions struct {
	CPP          decimal.Decimal
	CPP2         decimal.Decimal
	EI           decimal.Decimal
	EmployerCPP  decimal.Decimal
	EmployerCPP2 decimal.Decimal
	EmployerEI   decimal.Decimal
}

// ContributionCalculator computes CPP, CPP2 and EI. It keeps no state between
// calls: annual maximums are enforced from the YTD values on the input.
type ContributionCalculator struct {
	Rules domain.ContributionRules
}

// NewContributionCalculator creates a calculator for one cpp_ei edition
func NewContributionCalculator(rules domain.ContributionRules) *ContributionCalculator {
	return &ContributionCalculator{Rules: rules}
}

// Calculate computes all contributions for the period
func (cc *ContributionCalculator) Calculate(in ContributionInput) Contributions {
	var c Contributions
	if !in.CPPExempt {
		c.CPP = cc.CalculateCPP(in.PensionableEarnings, in.YTD.CPP, in.PeriodsPerYear)
		c.CPP2 = cc.CalculateCPP2(in.PensionableEarnings, in.YTD.PensionableEarnings, in.YTD.CPP2)
	}
	if !in.EIExempt {
		c.EI = cc.CalculateEI(in.InsurableEarnings, in.YTD.InsurableEarnings, in.YTD.EI)
	}
	c.EmployerCPP = c.CPP
	c.EmployerCPP2 = c.CPP2
	c.EmployerEI = roundCents(c.EI.Mul(cc.Rules.EI.EmployerMultiplier))
	return c
}

// CalculateCPP returns min(max − ytd, rate × (PI − basic_exemption/P)), floored at zero
func (cc *ContributionCalculator) CalculateCPP(pensionable, ytdCPP decimal.Decimal, periodsPerYear int) decimal.Decimal {
	r := cc.Rules.CPP
	exemption := r.BasicExemption.Div(periodsDecimal(periodsPerYear))

	contribution := roundCents(r.Rate.Mul(floorZero(pensionable.Sub(exemption))))
	room := floorZero(r.MaxContribution.Sub(ytdCPP))
	return decimal.Min(contribution, room)
}

// CalculateCPP2 applies the second additional rate to the slice of this
// period's earnings that falls between YMPE and YAMPE on a year-to-date basis
func (cc *ContributionCalculator) CalculateCPP2(pensionable, ytdPensionable, ytdCPP2 decimal.Decimal) decimal.Decimal {
	r := cc.Rules.CPP2

	lower := decimal.Max(ytdPensionable, cc.Rules.CPP.YMPE)
	upper := decimal.Min(ytdPensionable.Add(pensionable), r.YAMPE)
	earnings := floorZero(upper.Sub(lower))

	contribution := roundCents(r.Rate.Mul(earnings))
	room := floorZero(r.MaxContribution.Sub(ytdCPP2))
	return decimal.Min(contribution, room)
}

// CalculateEI applies the premium rate to insurable earnings up to the annual
// maximum, capped at the remaining annual premium
func (cc *ContributionCalculator) CalculateEI(insurable, ytdInsurable, ytdEI decimal.Decimal) decimal.Decimal {
	r := cc.Rules.EI

	earningsRoom := floorZero(r.MaxInsurableEarnings.Sub(ytdInsurable))
	premium := roundCents(r.Rate.Mul(decimal.Min(floorZero(insurable), earningsRoom)))
	room := floorZero(r.MaxPremium.Sub(ytdEI))
	return decimal.Min(premium, room)
}

// BaseCPPPortion is the part of a CPP contribution made at the base rate
func (cc *ContributionCalculator) BaseCPPPortion(cpp decimal.Decimal) decimal.Decimal {
	return cpp.Mul(cc.Rules.CPP.BaseRate).Div(cc.Rules.CPP.Rate)
}

// EnhancedCPPPortion is the first additional contribution, deducted from income (F5A)
func (cc *ContributionCalculator) EnhancedCPPPortion(cpp decimal.Decimal) decimal.Decimal {
	r := cc.Rules.CPP
	return cpp.Mul(r.Rate.Sub(r.BaseRate)).Div(r.Rate)
}
