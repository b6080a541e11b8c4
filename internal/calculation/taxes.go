package calculation

import (
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION METHOD (CRA T4127, option 1):
//
// 1. Annual taxable income A = P × (I − F − U1 − F5A), floored at zero, where
//    F5A is the enhanced CPP part of this period's contribution plus CPP2.
//
// 2. Federal: T3 = R×A − K − K1 − K2 − K4.
//    Provincial: T4 = V×A − KP − K1P − K2P − K4P − K5P, then
//    T2 = T4 + V1 (surtax) + V2 (health premium) − S (reduction).
//
// 3. Credits are valued at the table's lowest rate. Nothing is rounded until
//    the annual amount is divided back down to the period.

// TaxInput describes one period of income for withholding purposes
type TaxInput struct {
	PeriodsPerYear int

	// TaxableIncome is I − F − U1: period earnings less RPP contributions and union dues
	TaxableIncome decimal.Decimal

	// This period's contributions, used for F5A and the K2 credit
	CPP  decimal.Decimal
	CPP2 decimal.Decimal
	EI   decimal.Decimal

	// ClaimAmount replaces BPA + AdditionalClaims when set (explicit TD1 total)
	ClaimAmount      *decimal.Decimal
	AdditionalClaims decimal.Decimal
}

// TaxBreakdown exposes every factor of one jurisdiction's calculation
type TaxBreakdown struct {
	AnnualIncome        decimal.Decimal // A
	Rate                decimal.Decimal // R or V
	Constant            decimal.Decimal // K or KP
	BasicPersonalAmount decimal.Decimal
	ClaimAmount         decimal.Decimal // TC or TCP
	ClaimCredit         decimal.Decimal // K1
	ContributionCredit  decimal.Decimal // K2
	EmploymentCredit    decimal.Decimal // K4
	SupplementalCredit  decimal.Decimal // K5P
	BasicTax            decimal.Decimal // T3 or T4
	Surtax              decimal.Decimal // V1
	HealthPremium       decimal.Decimal // V2
	Reduction           decimal.Decimal // S
	AnnualTax           decimal.Decimal // T1 or T2
	PeriodTax           decimal.Decimal
}

// IncomeTaxCalculator computes federal and provincial withholding. The
// contribution rules are needed for the CPP/EI credit and the F5A deduction.
type IncomeTaxCalculator struct {
	Contributions *ContributionCalculator
}

// NewIncomeTaxCalculator creates a tax calculator bound to one cpp_ei edition
func NewIncomeTaxCalculator(contributions *ContributionCalculator) *IncomeTaxCalculator {
	return &IncomeTaxCalculator{Contributions: contributions}
}

// AnnualTaxableIncome returns A = P × (I − F − U1 − F5A), floored at zero
func (tc *IncomeTaxCalculator) AnnualTaxableIncome(in TaxInput) decimal.Decimal {
	f5a := tc.Contributions.EnhancedCPPPortion(in.CPP).Add(in.CPP2)
	return floorZero(periodsDecimal(in.PeriodsPerYear).Mul(in.TaxableIncome.Sub(f5a)))
}

// CalculateFederalTax evaluates T3 and de-annualises it
func (tc *IncomeTaxCalculator) CalculateFederalTax(table domain.TaxTable, in TaxInput) TaxBreakdown {
	b := tc.basic(table, in)
	b.BasicTax = floorZero(b.Rate.Mul(b.AnnualIncome).
		Sub(b.Constant).Sub(b.ClaimCredit).Sub(b.ContributionCredit).Sub(b.EmploymentCredit))
	b.AnnualTax = b.BasicTax
	b.PeriodTax = deannualise(b.AnnualTax, in.PeriodsPerYear)
	return b
}

// CalculateProvincialTax evaluates T4 and the provincial adjustments, then de-annualises T2
func (tc *IncomeTaxCalculator) CalculateProvincialTax(table domain.TaxTable, in TaxInput) TaxBreakdown {
	b := tc.basic(table, in)
	if table.SupplementalCredit != nil {
		b.SupplementalCredit = supplementalCredit(*table.SupplementalCredit, b.ClaimCredit, b.ContributionCredit)
	}

	b.BasicTax = floorZero(b.Rate.Mul(b.AnnualIncome).
		Sub(b.Constant).Sub(b.ClaimCredit).Sub(b.ContributionCredit).
		Sub(b.EmploymentCredit).Sub(b.SupplementalCredit))

	b.Surtax = surtax(table.Surtax, b.BasicTax)
	b.HealthPremium = healthPremium(table.HealthPremium, b.AnnualIncome)
	if table.Reduction != nil {
		b.Reduction = reduction(*table.Reduction, b.BasicTax, b.Surtax, b.AnnualIncome)
	}

	b.AnnualTax = floorZero(b.BasicTax.Add(b.Surtax).Add(b.HealthPremium).Sub(b.Reduction))
	b.PeriodTax = deannualise(b.AnnualTax, in.PeriodsPerYear)
	return b
}

// basic fills in A, the bracket factors and the K1/K2/K4 credits common to both levels
func (tc *IncomeTaxCalculator) basic(table domain.TaxTable, in TaxInput) TaxBreakdown {
	a := tc.AnnualTaxableIncome(in)
	bracket := bracketFor(table.Brackets, a)
	lowest := table.LowestRate()

	b := TaxBreakdown{
		AnnualIncome:        a,
		Rate:                bracket.Rate,
		Constant:            bracket.Constant,
		BasicPersonalAmount: basicPersonalAmount(table.BasicPersonalAmount, a),
	}

	if in.ClaimAmount != nil {
		b.ClaimAmount = *in.ClaimAmount
	} else {
		b.ClaimAmount = b.BasicPersonalAmount.Add(in.AdditionalClaims)
	}
	b.ClaimCredit = lowest.Mul(b.ClaimAmount)
	b.ContributionCredit = tc.contributionCredit(lowest, in)
	if table.EmploymentAmount != nil {
		b.EmploymentCredit = decimal.Min(lowest.Mul(a), lowest.Mul(*table.EmploymentAmount))
	}
	return b
}

// contributionCredit is K2: base CPP and EI annualised, each capped at its annual maximum
func (tc *IncomeTaxCalculator) contributionCredit(lowest decimal.Decimal, in TaxInput) decimal.Decimal {
	rules := tc.Contributions.Rules
	p := periodsDecimal(in.PeriodsPerYear)

	cpp := decimal.Min(p.Mul(tc.Contributions.BaseCPPPortion(in.CPP)), rules.CPP.MaxBaseContribution())
	ei := decimal.Min(p.Mul(in.EI), rules.EI.MaxPremium)
	return lowest.Mul(cpp).Add(lowest.Mul(ei))
}

// bracketFor returns the highest bracket whose threshold does not exceed income
func bracketFor(brackets []domain.TaxBracket, income decimal.Decimal) domain.TaxBracket {
	if len(brackets) == 0 {
		return domain.TaxBracket{}
	}
	selected := brackets[0]
	for _, b := range brackets[1:] {
		if income.LessThan(b.Threshold) {
			break
		}
		selected = b
	}
	return selected
}

func deannualise(annual decimal.Decimal, periodsPerYear int) decimal.Decimal {
	return roundCents(floorZero(annual.Div(periodsDecimal(periodsPerYear))))
}
