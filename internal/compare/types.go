package compare

import (
	"fmt"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/calculation"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

// ComparisonResult is one variant of a request with its key figures
type ComparisonResult struct {
	ScenarioName string `json:"scenarioName"`
	Description  string `json:"description"`

	Province     domain.Jurisdiction `json:"province"`
	PayFrequency domain.PayFrequency `json:"payFrequency"`
	PayDate      domain.Date         `json:"payDate"`
	Editions     domain.EditionsUsed `json:"editions"`

	// Key Metrics (per period unless annualized)
	GrossEarnings decimal.Decimal `json:"grossEarnings"`
	Contributions decimal.Decimal `json:"contributions"` // CPP + CPP2 + EI
	IncomeTax     decimal.Decimal `json:"incomeTax"`
	NetPay        decimal.Decimal `json:"netPay"`
	EmployerCost  decimal.Decimal `json:"employerCost"`
	AnnualNetPay  decimal.Decimal `json:"annualNetPay"`

	// Comparison to Base, annualized so differing frequencies compare fairly
	AnnualNetDiffFromBase     decimal.Decimal `json:"annualNetDiffFromBase"`
	AnnualNetPctFromBase      decimal.Decimal `json:"annualNetPctFromBase"`
	AnnualTaxDiffFromBase     decimal.Decimal `json:"annualTaxDiffFromBase"`
	AnnualContribDiffFromBase decimal.Decimal `json:"annualContribDiffFromBase"`

	// Set when the variant could not be calculated
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the variant could not be calculated
func (r ComparisonResult) Failed() bool { return r.Error != "" }

// ComparisonSet is a base calculation and its variants
type ComparisonSet struct {
	EmployeeID         string             `json:"employeeId"`
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
	RequestPath        string             `json:"requestPath,omitempty"`
}

// MetricsCalculator extracts key metrics from calculation results
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes the comparison figures for one result
func (mc *MetricsCalculator) CalculateMetrics(name string, result domain.CalculationResult) ComparisonResult {
	periods := decimal.NewFromInt(int64(result.PayFrequency.PeriodsPerYear()))
	return ComparisonResult{
		ScenarioName:  name,
		Province:      result.Province,
		PayFrequency:  result.PayFrequency,
		PayDate:       result.PayDate,
		Editions:      result.Editions,
		GrossEarnings: result.GrossEarnings,
		Contributions: result.CPP.Add(result.CPP2).Add(result.EI),
		IncomeTax:     result.TotalTax,
		NetPay:        result.NetPay,
		EmployerCost:  result.TotalEmployerCost(),
		AnnualNetPay:  result.NetPay.Mul(periods),
		Outcome:       calculation.OutcomeOK,
	}
}

// CalculateComparison fills in the deltas of scenario against base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	if scenario.Failed() {
		return scenario
	}
	basePeriods := decimal.NewFromInt(int64(base.PayFrequency.PeriodsPerYear()))
	periods := decimal.NewFromInt(int64(scenario.PayFrequency.PeriodsPerYear()))

	scenario.AnnualNetDiffFromBase = scenario.AnnualNetPay.Sub(base.AnnualNetPay)
	if !base.AnnualNetPay.IsZero() {
		scenario.AnnualNetPctFromBase = scenario.AnnualNetDiffFromBase.
			Div(base.AnnualNetPay).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	scenario.AnnualTaxDiffFromBase = scenario.IncomeTax.Mul(periods).Sub(base.IncomeTax.Mul(basePeriods))
	scenario.AnnualContribDiffFromBase = scenario.Contributions.Mul(periods).Sub(base.Contributions.Mul(basePeriods))
	return scenario
}

// GenerateRecommendations summarizes the comparison in a few sentences
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if len(compSet.AlternativeResults) == 0 {
		return recommendations
	}

	best := compSet.BaseResult
	lowestTax := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.Failed() {
			recommendations = append(recommendations,
				fmt.Sprintf("Not calculated: %s (%s)", alt.ScenarioName, alt.Outcome))
			continue
		}
		if alt.AnnualNetPay.GreaterThan(best.AnnualNetPay) {
			best = alt
		}
		if alt.AnnualTaxDiffFromBase.LessThan(decimal.Zero) &&
			(lowestTax == compSet.BaseResult || alt.AnnualTaxDiffFromBase.LessThan(lowestTax.AnnualTaxDiffFromBase)) {
			lowestTax = alt
		}
	}

	if best != compSet.BaseResult {
		recommendations = append(recommendations,
			"Highest Net Pay: "+best.ScenarioName+" pays $"+best.AnnualNetDiffFromBase.StringFixed(2)+
				" more per year than the base")
	}
	if lowestTax != compSet.BaseResult {
		recommendations = append(recommendations,
			"Lowest Income Tax: "+lowestTax.ScenarioName+" withholds $"+
				lowestTax.AnnualTaxDiffFromBase.Neg().StringFixed(2)+" less per year")
	}

	return recommendations
}
