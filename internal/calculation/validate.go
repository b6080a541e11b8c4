package calculation

import (
	"fmt"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

type namedAmount struct {
	field string
	value decimal.Decimal
}

// ValidateRequest rejects malformed requests before any rule is resolved
func ValidateRequest(req domain.CalculationRequest) error {
	if !req.Province.IsProvince() {
		return invalid("province", "%q is not a supported province or territory", req.Province)
	}
	if req.EmploymentStandards != "" && !req.EmploymentStandards.IsValid() {
		return invalid("employment_standards", "unknown jurisdiction %q", req.EmploymentStandards)
	}
	if req.PayFrequency.PeriodsPerYear() == 0 {
		return invalid("pay_frequency", "unknown pay frequency %q", req.PayFrequency)
	}

	if req.PayDate.IsZero() {
		return invalid("pay_date", "is required")
	}
	if req.HireDate.IsZero() {
		return invalid("hire_date", "is required")
	}
	if req.HireDate.After(req.PayDate) {
		return invalid("hire_date", "%s is after pay date %s", req.HireDate, req.PayDate)
	}
	if req.BirthDate != nil && !req.BirthDate.IsZero() && !req.BirthDate.Before(req.PayDate) {
		return invalid("birth_date", "%s is not before pay date %s", req.BirthDate, req.PayDate)
	}

	switch req.VacationPayMethod {
	case "", domain.VacationAccrue, domain.VacationPayEachPeriod:
	default:
		return invalid("vacation_pay_method", "unknown method %q", req.VacationPayMethod)
	}
	if o := req.VacationRateOverride; o != nil {
		if o.IsNegative() || o.GreaterThanOrEqual(one) {
			return invalid("vacation_rate_override", "%s must be a fraction in [0, 1)", o.String())
		}
	}

	amounts := []namedAmount{
		{"regular_wages", req.RegularWages},
		{"taxable_benefits", req.TaxableBenefits},
		{"rpp_contributions", req.RPPContributions},
		{"union_dues", req.UnionDues},
		{"federal_additional_claims", req.FederalAdditionalClaims},
		{"provincial_additional_claims", req.ProvincialAdditionalClaims},
		{"ytd.cpp", req.YTD.CPP},
		{"ytd.cpp2", req.YTD.CPP2},
		{"ytd.ei", req.YTD.EI},
		{"ytd.pensionable_earnings", req.YTD.PensionableEarnings},
		{"ytd.insurable_earnings", req.YTD.InsurableEarnings},
		{"ytd.gross_earnings", req.YTD.GrossEarnings},
		{"ytd.federal_tax", req.YTD.FederalTax},
		{"ytd.provincial_tax", req.YTD.ProvincialTax},
	}
	if req.FederalClaimAmount != nil {
		amounts = append(amounts, namedAmount{"federal_claim_amount", *req.FederalClaimAmount})
	}
	if req.ProvincialClaimAmount != nil {
		amounts = append(amounts, namedAmount{"provincial_claim_amount", *req.ProvincialClaimAmount})
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return invalid(a.field, "cannot be negative (got %s)", a.value.String())
		}
	}

	seen := make(map[string]int, len(req.Holidays))
	for i, h := range req.Holidays {
		field := fmt.Sprintf("holidays[%d]", i)
		if h.IsZero() {
			return invalid(field, "date is required")
		}
		if first, dup := seen[h.String()]; dup {
			return invalid(field, "%s is already listed at holidays[%d]", h, first)
		}
		seen[h.String()] = i
	}
	for i, e := range req.WageHistory {
		field := fmt.Sprintf("wage_history[%d]", i)
		if e.PeriodEnd.IsZero() {
			return invalid(field+".period_end", "is required")
		}
		if e.Wages.IsNegative() || e.VacationPay.IsNegative() {
			return invalid(field, "wages and vacation pay cannot be negative")
		}
		if e.DaysWorked < 0 {
			return invalid(field+".days_worked", "cannot be negative")
		}
	}
	return nil
}
