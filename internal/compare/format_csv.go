package compare

import (
	"encoding/csv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Province",
		"Pay Frequency",
		"Pay Date",
		"Gross",
		"Contributions",
		"Income Tax",
		"Net Pay",
		"Annual Net Pay",
		"Annual Net Diff from Base",
		"Annual Net % Change",
		"Annual Tax Diff from Base",
		"Outcome",
		"Error",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
		return "", err
	}
	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row; failed variants keep
// only their identity and error
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	row := []string{
		result.ScenarioName,
		scenarioType,
		string(result.Province),
		string(result.PayFrequency),
		result.PayDate.String(),
	}
	if result.Failed() {
		row = append(row, "", "", "", "", "", "", "", "")
	} else {
		row = append(row,
			result.GrossEarnings.StringFixed(2),
			result.Contributions.StringFixed(2),
			result.IncomeTax.StringFixed(2),
			result.NetPay.StringFixed(2),
			result.AnnualNetPay.StringFixed(2),
			result.AnnualNetDiffFromBase.StringFixed(2),
			result.AnnualNetPctFromBase.StringFixed(2),
			result.AnnualTaxDiffFromBase.StringFixed(2),
		)
	}
	return append(row, result.Outcome, result.Error)
}
