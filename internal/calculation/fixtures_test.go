package calculation

import (
	"testing"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func datePtr(s string) *domain.Date {
	v := domain.MustParseDate(s)
	return &v
}

// testContributionRules uses the 2025 CPP/EI parameters
func testContributionRules() domain.ContributionRules {
	return domain.ContributionRules{
		CPP: domain.CPPRules{
			Rate:            d("0.0595"),
			BaseRate:        d("0.0495"),
			BasicExemption:  d("3500"),
			YMPE:            d("71300"),
			MaxContribution: d("4034.10"),
		},
		CPP2: domain.CPP2Rules{
			Rate:            d("0.04"),
			YAMPE:           d("81200"),
			MaxContribution: d("396.00"),
		},
		EI: domain.EIRules{
			Rate:                 d("0.0164"),
			MaxInsurableEarnings: d("65700"),
			MaxPremium:           d("1077.48"),
			EmployerMultiplier:   d("1.4"),
		},
	}
}

// Round-number tables so expected taxes can be worked by hand

func testFederalTable() domain.TaxTable {
	employment := d("1000")
	return domain.TaxTable{
		Brackets: []domain.TaxBracket{
			{Threshold: d("0"), Rate: d("0.15"), Constant: d("0")},
			{Threshold: d("50000"), Rate: d("0.20"), Constant: d("2500")},
		},
		BasicPersonalAmount: domain.BasicPersonalAmount{Kind: domain.BPAFlat, Amount: d("15000")},
		EmploymentAmount:    &employment,
	}
}

func testOntarioTable() domain.TaxTable {
	return domain.TaxTable{
		Brackets: []domain.TaxBracket{
			{Threshold: d("0"), Rate: d("0.05"), Constant: d("0")},
			{Threshold: d("50000"), Rate: d("0.10"), Constant: d("2500")},
		},
		BasicPersonalAmount: domain.BasicPersonalAmount{Kind: domain.BPAFlat, Amount: d("12000")},
		Surtax: []domain.SurtaxTier{
			{Threshold: d("2000"), Rate: d("0.20")},
			{Threshold: d("3000"), Rate: d("0.36")},
		},
		HealthPremium: []domain.HealthPremiumTier{
			{Threshold: d("20000"), Base: d("0"), Rate: d("0.06"), Cap: d("300")},
			{Threshold: d("36000"), Base: d("300"), Rate: d("0.06"), Cap: d("450")},
			{Threshold: d("48000"), Base: d("450"), Rate: d("0.25"), Cap: d("600")},
			{Threshold: d("72000"), Base: d("600"), Rate: d("0.25"), Cap: d("750")},
			{Threshold: d("200000"), Base: d("750"), Rate: d("0.25"), Cap: d("900")},
		},
		Reduction: &domain.TaxReduction{Kind: domain.ReductionONLowIncome, Base: d("300")},
	}
}

func testBritishColumbiaTable() domain.TaxTable {
	return domain.TaxTable{
		Brackets:            []domain.TaxBracket{{Threshold: d("0"), Rate: d("0.05"), Constant: d("0")}},
		BasicPersonalAmount: domain.BasicPersonalAmount{Kind: domain.BPAFlat, Amount: d("12000")},
		Reduction: &domain.TaxReduction{
			Kind:      domain.ReductionBCLowIncome,
			Base:      d("500"),
			Threshold: d("25000"),
			Rate:      d("0.04"),
		},
	}
}

func testAlbertaTable(factor domain.CreditFactor) domain.TaxTable {
	return domain.TaxTable{
		Brackets:            []domain.TaxBracket{{Threshold: d("0"), Rate: d("0.06"), Constant: d("0")}},
		BasicPersonalAmount: domain.BasicPersonalAmount{Kind: domain.BPAFlat, Amount: d("22000")},
		SupplementalCredit:  &domain.SupplementalCredit{Threshold: d("1000"), Factor: factor},
	}
}

func fractionFactor() domain.CreditFactor {
	return domain.CreditFactor{Kind: domain.FactorFraction, Numerator: d("1"), Denominator: d("4")}
}

func decimalFactor() domain.CreditFactor {
	return domain.CreditFactor{Kind: domain.FactorDecimal, Value: d("0.25")}
}

func flatVacation() domain.VacationMinimumTable {
	return domain.VacationMinimumTable{Tiers: []domain.VacationTier{
		{YearsOfService: 0, Rate: d("0.04")},
		{YearsOfService: 5, Rate: d("0.06")},
	}}
}

func saskatchewanVacation() domain.VacationMinimumTable {
	return domain.VacationMinimumTable{Tiers: []domain.VacationTier{
		{YearsOfService: 0, Weeks: 3, WeeksDenominator: 52},
		{YearsOfService: 10, Weeks: 4, WeeksDenominator: 52},
	}}
}

func saskatchewanHoliday() domain.HolidayPayFormulaSpec {
	return domain.HolidayPayFormulaSpec{
		Kind:               domain.HolidayPercentOfWages,
		Lookback:           domain.Lookback{Unit: domain.LookbackDays, Length: 28},
		Rate:               d("0.05"),
		IncludeVacationPay: true,
	}
}

func ontarioHoliday() domain.HolidayPayFormulaSpec {
	return domain.HolidayPayFormulaSpec{
		Kind:               domain.HolidayAverageFixedDivisor,
		Lookback:           domain.Lookback{Unit: domain.LookbackWeeks, Length: 4},
		Divisor:            d("20"),
		IncludeVacationPay: true,
	}
}

func britishColumbiaHoliday() domain.HolidayPayFormulaSpec {
	return domain.HolidayPayFormulaSpec{
		Kind:               domain.HolidayAverageDaysWorked,
		Lookback:           domain.Lookback{Unit: domain.LookbackDays, Length: 30},
		IncludeVacationPay: true,
	}
}

type editionOpt func(*domain.RuleEdition)

func edition(j domain.Jurisdiction, f domain.Family, id, start, end string, opts ...editionOpt) domain.RuleEdition {
	e := domain.RuleEdition{
		Jurisdiction: j,
		Family:       f,
		ID:           id,
		Start:        domain.MustParseDate(start),
		End:          domain.MustParseDate(end),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func withTax(t domain.TaxTable) editionOpt {
	return func(e *domain.RuleEdition) { e.Tax = &t }
}

func withVacation(v domain.VacationMinimumTable) editionOpt {
	return func(e *domain.RuleEdition) { e.Vacation = &v }
}

func withHoliday(h domain.HolidayPayFormulaSpec) editionOpt {
	return func(e *domain.RuleEdition) { e.Holiday = &h }
}

func withContributions(c domain.ContributionRules) editionOpt {
	return func(e *domain.RuleEdition) { e.Contributions = &c }
}

// testEditions covers 2025 for CA, ON, SK, BC and AB. Alberta switches
// from the fraction to the decimal factor on 2025-07-01 with the same value.
func testEditions() []domain.RuleEdition {
	const start, end = "2025-01-01", "2026-01-01"
	return []domain.RuleEdition{
		edition(domain.Federal, domain.FamilyContributions, "cpp-2025", start, end, withContributions(testContributionRules())),
		edition(domain.Federal, domain.FamilyFederalTax, "fed-2025", start, end, withTax(testFederalTable())),
		edition(domain.Federal, domain.FamilyVacationMinimum, "clc-2025", start, end, withVacation(flatVacation())),
		edition(domain.Federal, domain.FamilyHolidayPay, "clc-2025", start, end, withHoliday(ontarioHoliday())),

		edition(domain.Ontario, domain.FamilyProvincialTax, "on-2025", start, end, withTax(testOntarioTable())),
		edition(domain.Ontario, domain.FamilyVacationMinimum, "on-2025", start, end, withVacation(flatVacation())),
		edition(domain.Ontario, domain.FamilyHolidayPay, "on-2025", start, end, withHoliday(ontarioHoliday())),

		edition(domain.Saskatchewan, domain.FamilyProvincialTax, "sk-2025", start, end, withTax(testBritishColumbiaTable())),
		edition(domain.Saskatchewan, domain.FamilyVacationMinimum, "sk-2025", start, end, withVacation(saskatchewanVacation())),
		edition(domain.Saskatchewan, domain.FamilyHolidayPay, "sk-2025", start, end, withHoliday(saskatchewanHoliday())),

		edition(domain.BritishColumbia, domain.FamilyProvincialTax, "bc-2025", start, end, withTax(testBritishColumbiaTable())),
		edition(domain.BritishColumbia, domain.FamilyVacationMinimum, "bc-2025", start, end, withVacation(flatVacation())),
		edition(domain.BritishColumbia, domain.FamilyHolidayPay, "bc-2025", start, end, withHoliday(britishColumbiaHoliday())),

		edition(domain.Alberta, domain.FamilyProvincialTax, "ab-2025-01", start, "2025-07-01", withTax(testAlbertaTable(fractionFactor()))),
		edition(domain.Alberta, domain.FamilyProvincialTax, "ab-2025-07", "2025-07-01", end, withTax(testAlbertaTable(decimalFactor()))),
		edition(domain.Alberta, domain.FamilyVacationMinimum, "ab-2025", start, end, withVacation(flatVacation())),
		edition(domain.Alberta, domain.FamilyHolidayPay, "ab-2025", start, end, withHoliday(britishColumbiaHoliday())),
	}
}

func testStore(t *testing.T) *rules.Store {
	t.Helper()
	store, err := rules.NewStore(testEditions())
	require.NoError(t, err)
	return store
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testStore(t))
}

// baseRequest is a monthly Ontario employee hired in 2020
func baseRequest() domain.CalculationRequest {
	return domain.CalculationRequest{
		EmployeeID:   "E-100",
		Province:     domain.Ontario,
		PayFrequency: domain.Monthly,
		PayDate:      domain.MustParseDate("2025-03-31"),
		HireDate:     domain.MustParseDate("2020-01-06"),
		RegularWages: d("5000"),
	}
}
