package domain

import (
	"github.com/shopspring/decimal"
)

// VacationPayMethod controls whether vacation pay is paid out with each pay or accrued
type VacationPayMethod string

const (
	VacationAccrue        VacationPayMethod = "accrue"
	VacationPayEachPeriod VacationPayMethod = "pay_each_period"
)

// WageEntry is one prior pay period used by holiday-pay lookback windows
type WageEntry struct {
	PeriodEnd   Date            `yaml:"period_end" json:"period_end"`
	Wages       decimal.Decimal `yaml:"wages" json:"wages"`
	VacationPay decimal.Decimal `yaml:"vacation_pay" json:"vacation_pay"`
	DaysWorked  int             `yaml:"days_worked" json:"days_worked"`
}

// YTD holds the year-to-date accumulators the caller carries between pay periods
type YTD struct {
	CPP                 decimal.Decimal `yaml:"cpp" json:"cpp"`
	CPP2                decimal.Decimal `yaml:"cpp2" json:"cpp2"`
	EI                  decimal.Decimal `yaml:"ei" json:"ei"`
	PensionableEarnings decimal.Decimal `yaml:"pensionable_earnings" json:"pensionable_earnings"`
	InsurableEarnings   decimal.Decimal `yaml:"insurable_earnings" json:"insurable_earnings"`

	// Informational only
	GrossEarnings decimal.Decimal `yaml:"gross_earnings" json:"gross_earnings"`
	FederalTax    decimal.Decimal `yaml:"federal_tax" json:"federal_tax"`
	ProvincialTax decimal.Decimal `yaml:"provincial_tax" json:"provincial_tax"`
}

// CalculationRequest describes one employee for one pay period
type CalculationRequest struct {
	EmployeeID string `yaml:"employee_id" json:"employee_id"`

	Province Jurisdiction `yaml:"province" json:"province"`
	// EmploymentStandards selects the vacation/holiday rules; defaults to Province.
	// Federally regulated employers use CA.
	EmploymentStandards Jurisdiction `yaml:"employment_standards,omitempty" json:"employment_standards,omitempty"`

	PayFrequency PayFrequency `yaml:"pay_frequency" json:"pay_frequency"`
	PayDate      Date         `yaml:"pay_date" json:"pay_date"`
	HireDate     Date         `yaml:"hire_date" json:"hire_date"`
	BirthDate    *Date        `yaml:"birth_date,omitempty" json:"birth_date,omitempty"`

	CPPExempt bool `yaml:"cpp_exempt" json:"cpp_exempt"`
	EIExempt  bool `yaml:"ei_exempt" json:"ei_exempt"`

	// Explicit TD1 totals replace the basic personal amount when set
	FederalClaimAmount    *decimal.Decimal `yaml:"federal_claim_amount,omitempty" json:"federal_claim_amount,omitempty"`
	ProvincialClaimAmount *decimal.Decimal `yaml:"provincial_claim_amount,omitempty" json:"provincial_claim_amount,omitempty"`
	// Additional amounts are added on top of the basic personal amount
	FederalAdditionalClaims    decimal.Decimal `yaml:"federal_additional_claims" json:"federal_additional_claims"`
	ProvincialAdditionalClaims decimal.Decimal `yaml:"provincial_additional_claims" json:"provincial_additional_claims"`

	RegularWages     decimal.Decimal `yaml:"regular_wages" json:"regular_wages"`
	TaxableBenefits  decimal.Decimal `yaml:"taxable_benefits" json:"taxable_benefits"`
	RPPContributions decimal.Decimal `yaml:"rpp_contributions" json:"rpp_contributions"`
	UnionDues        decimal.Decimal `yaml:"union_dues" json:"union_dues"`

	VacationPayMethod    VacationPayMethod `yaml:"vacation_pay_method,omitempty" json:"vacation_pay_method,omitempty"`
	VacationRateOverride *decimal.Decimal  `yaml:"vacation_rate_override,omitempty" json:"vacation_rate_override,omitempty"`

	Holidays    []Date      `yaml:"holidays,omitempty" json:"holidays,omitempty"`
	WageHistory []WageEntry `yaml:"wage_history,omitempty" json:"wage_history,omitempty"`

	YTD YTD `yaml:"ytd" json:"ytd"`
}

// StandardsJurisdiction returns the jurisdiction whose employment standards apply
func (r CalculationRequest) StandardsJurisdiction() Jurisdiction {
	if r.EmploymentStandards != "" {
		return r.EmploymentStandards
	}
	return r.Province
}

// Method returns the vacation pay method, defaulting to accrual
func (r CalculationRequest) Method() VacationPayMethod {
	if r.VacationPayMethod == "" {
		return VacationAccrue
	}
	return r.VacationPayMethod
}

// AgeAt returns the employee's age in whole years on date, or -1 without a birth date
func (r CalculationRequest) AgeAt(date Date) int {
	if r.BirthDate == nil || r.BirthDate.IsZero() {
		return -1
	}
	return r.BirthDate.CompletedYearsUntil(date)
}
