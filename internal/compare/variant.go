package compare

import (
	"fmt"
	"strings"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

// Variant is a named change applied to a copy of the base request
type Variant struct {
	Name        string
	Description string
	Apply       func(req domain.CalculationRequest) (domain.CalculationRequest, error)
}

// ParseVariant builds a variant from a "kind:value" spec:
//
//	date:2026-01-15     same pay under the rules in force on another date
//	province:AB         same pay for an employee in another province
//	frequency:weekly    same annual pay on another pay frequency
func ParseVariant(spec string) (Variant, error) {
	kind, value, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok || value == "" {
		return Variant{}, fmt.Errorf("variant %q: expected kind:value", spec)
	}

	switch strings.ToLower(kind) {
	case "date":
		d, err := domain.ParseDate(value)
		if err != nil {
			return Variant{}, fmt.Errorf("variant %q: %w", spec, err)
		}
		return PayDateVariant(d), nil
	case "province":
		j, err := domain.ParseJurisdiction(value)
		if err != nil {
			return Variant{}, fmt.Errorf("variant %q: %w", spec, err)
		}
		if !j.IsProvince() {
			return Variant{}, fmt.Errorf("variant %q: %s is not a province or territory", spec, j)
		}
		return ProvinceVariant(j), nil
	case "frequency":
		f := domain.PayFrequency(strings.ToLower(value))
		if f.PeriodsPerYear() == 0 {
			return Variant{}, fmt.Errorf("variant %q: unknown pay frequency", spec)
		}
		return FrequencyVariant(f), nil
	default:
		return Variant{}, fmt.Errorf("variant %q: unknown kind %q (expected date, province or frequency)", spec, kind)
	}
}

// ParseVariants parses a list of variant specs
func ParseVariants(specs []string) ([]Variant, error) {
	variants := make([]Variant, 0, len(specs))
	for _, spec := range specs {
		v, err := ParseVariant(spec)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

// PayDateVariant moves the pay date. Holidays and hire date are kept, so
// years of service follow the new date.
func PayDateVariant(d domain.Date) Variant {
	return Variant{
		Name:        "date_" + d.String(),
		Description: "Same pay on " + d.String(),
		Apply: func(req domain.CalculationRequest) (domain.CalculationRequest, error) {
			req.PayDate = d
			return req, nil
		},
	}
}

// ProvinceVariant relocates the employee. Employment standards follow the
// province unless the employer is federally regulated.
func ProvinceVariant(j domain.Jurisdiction) Variant {
	return Variant{
		Name:        "province_" + string(j),
		Description: "Same pay in " + string(j),
		Apply: func(req domain.CalculationRequest) (domain.CalculationRequest, error) {
			req.Province = j
			if req.EmploymentStandards != domain.Federal {
				req.EmploymentStandards = ""
			}
			// provincial TD1 totals do not carry across provinces
			req.ProvincialClaimAmount = nil
			return req, nil
		},
	}
}

// FrequencyVariant changes the pay frequency and rescales per-period amounts
// so annual pay is unchanged
func FrequencyVariant(f domain.PayFrequency) Variant {
	return Variant{
		Name:        "frequency_" + string(f),
		Description: "Same annual pay paid " + string(f),
		Apply: func(req domain.CalculationRequest) (domain.CalculationRequest, error) {
			from := req.PayFrequency.PeriodsPerYear()
			if from == 0 {
				return req, fmt.Errorf("base pay frequency %q is unknown", req.PayFrequency)
			}
			ratio := decimal.NewFromInt(int64(from)).Div(decimal.NewFromInt(int64(f.PeriodsPerYear())))
			scale := func(d decimal.Decimal) decimal.Decimal { return d.Mul(ratio).Round(2) }

			req.PayFrequency = f
			req.RegularWages = scale(req.RegularWages)
			req.TaxableBenefits = scale(req.TaxableBenefits)
			req.RPPContributions = scale(req.RPPContributions)
			req.UnionDues = scale(req.UnionDues)
			return req, nil
		},
	}
}
