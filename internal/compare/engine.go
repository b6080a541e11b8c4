package compare

import (
	"context"
	"fmt"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/calculation"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
)

// Calculator computes one request against a fixed rule snapshot
type Calculator interface {
	CalculateWith(snapshot *rules.Snapshot, req domain.CalculationRequest) (domain.CalculationResult, error)
}

// CompareEngine orchestrates variant comparison
type CompareEngine struct {
	Calc              Calculator
	Source            calculation.SnapshotSource
	MetricsCalculator *MetricsCalculator
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calc Calculator, source calculation.SnapshotSource) *CompareEngine {
	return &CompareEngine{
		Calc:              calc,
		Source:            source,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// Compare calculates base and every variant against one snapshot. The base
// must succeed; a variant that fails is reported in its result with its
// outcome, since a variant outside the published rules is a finding rather
// than a fault.
func (ce *CompareEngine) Compare(ctx context.Context, base domain.CalculationRequest, variants []Variant) (*ComparisonSet, error) {
	snapshot := ce.Source.Snapshot()

	baseCalc, err := ce.Calc.CalculateWith(snapshot, base)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base: %w", err)
	}
	baseResult := ce.MetricsCalculator.CalculateMetrics("base", baseCalc)
	baseResult.Description = "As requested"

	alternatives := []ComparisonResult{}
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := v.Apply(base)
		if err != nil {
			return nil, fmt.Errorf("failed to apply variant %s: %w", v.Name, err)
		}

		var alt ComparisonResult
		if result, err := ce.Calc.CalculateWith(snapshot, req); err != nil {
			alt = ComparisonResult{
				ScenarioName: v.Name,
				Province:     req.Province,
				PayFrequency: req.PayFrequency,
				PayDate:      req.PayDate,
				Outcome:      calculation.Outcome(err),
				Error:        err.Error(),
			}
		} else {
			alt = ce.MetricsCalculator.CalculateMetrics(v.Name, result)
		}
		alt.Description = v.Description
		alternatives = append(alternatives, ce.MetricsCalculator.CalculateComparison(alt, baseResult))
	}

	compSet := &ComparisonSet{
		EmployeeID:         base.EmployeeID,
		BaseScenarioName:   baseResult.ScenarioName,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}
