package domain

import (
	"github.com/shopspring/decimal"
)

// HolidayPayLine is the pay for one general holiday
type HolidayPayLine struct {
	Date   Date            `yaml:"date" json:"date"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
}

// EditionsUsed records which edition of each family produced a result
type EditionsUsed struct {
	Contributions   string `yaml:"cpp_ei" json:"cpp_ei"`
	FederalTax      string `yaml:"federal_tax" json:"federal_tax"`
	ProvincialTax   string `yaml:"provincial_tax" json:"provincial_tax"`
	VacationMinimum string `yaml:"vacation_minimum" json:"vacation_minimum"`
	HolidayPay      string `yaml:"holiday_pay" json:"holiday_pay"`
}

// CalculationResult is the outcome of one pay-period calculation.
// It is built once by the engine and never modified afterwards.
type CalculationResult struct {
	EmployeeID          string       `yaml:"employee_id" json:"employee_id"`
	PayDate             Date         `yaml:"pay_date" json:"pay_date"`
	Province            Jurisdiction `yaml:"province" json:"province"`
	EmploymentStandards Jurisdiction `yaml:"employment_standards" json:"employment_standards"`
	PayFrequency        PayFrequency `yaml:"pay_frequency" json:"pay_frequency"`
	Editions            EditionsUsed `yaml:"editions" json:"editions"`

	// Earnings
	GrossEarnings       decimal.Decimal `yaml:"gross_earnings" json:"gross_earnings"`
	PensionableEarnings decimal.Decimal `yaml:"pensionable_earnings" json:"pensionable_earnings"`
	InsurableEarnings   decimal.Decimal `yaml:"insurable_earnings" json:"insurable_earnings"`
	TaxableIncome       decimal.Decimal `yaml:"taxable_income" json:"taxable_income"` // per period, after RPP and union dues

	// Employee deductions
	CPP           decimal.Decimal `yaml:"cpp" json:"cpp"`
	CPP2          decimal.Decimal `yaml:"cpp2" json:"cpp2"`
	EI            decimal.Decimal `yaml:"ei" json:"ei"`
	FederalTax    decimal.Decimal `yaml:"federal_tax" json:"federal_tax"`
	ProvincialTax decimal.Decimal `yaml:"provincial_tax" json:"provincial_tax"`
	TotalTax      decimal.Decimal `yaml:"total_tax" json:"total_tax"`

	// Employer contributions
	EmployerCPP  decimal.Decimal `yaml:"employer_cpp" json:"employer_cpp"`
	EmployerCPP2 decimal.Decimal `yaml:"employer_cpp2" json:"employer_cpp2"`
	EmployerEI   decimal.Decimal `yaml:"employer_ei" json:"employer_ei"`

	// Entitlements
	YearsOfService  int              `yaml:"years_of_service" json:"years_of_service"`
	VacationRate    decimal.Decimal  `yaml:"vacation_rate" json:"vacation_rate"`
	VacationPay     decimal.Decimal  `yaml:"vacation_pay" json:"vacation_pay"`
	VacationPaidOut bool             `yaml:"vacation_paid_out" json:"vacation_paid_out"`
	HolidayPay      decimal.Decimal  `yaml:"holiday_pay" json:"holiday_pay"`
	HolidayLines    []HolidayPayLine `yaml:"holiday_lines,omitempty" json:"holiday_lines,omitempty"`

	TotalDeductions decimal.Decimal `yaml:"total_deductions" json:"total_deductions"`
	NetPay          decimal.Decimal `yaml:"net_pay" json:"net_pay"`

	YTD YTD `yaml:"ytd" json:"ytd"`
}

// TotalEmployerCost is gross earnings plus the employer's statutory contributions
func (r CalculationResult) TotalEmployerCost() decimal.Decimal {
	return r.GrossEarnings.Add(r.EmployerCPP).Add(r.EmployerCPP2).Add(r.EmployerEI)
}
