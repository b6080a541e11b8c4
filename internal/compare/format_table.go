package compare

import (
	"fmt"
	"strings"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/output"
	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing the base with its variants
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("PAYROLL WHAT-IF COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 96) + "\n")
	sb.WriteString(fmt.Sprintf("Employee: %s\n", compSet.EmployeeID))
	if compSet.RequestPath != "" {
		sb.WriteString(fmt.Sprintf("Request:  %s\n", compSet.RequestPath))
	}
	sb.WriteString("\n")

	nameWidth := 26
	numWidth := 13

	sb.WriteString(fmt.Sprintf("%-*s %-4s %-12s %*s %*s %*s %*s\n",
		nameWidth, "Scenario", "Prov", "Frequency",
		numWidth, "Deductions",
		numWidth, "Income Tax",
		numWidth, "Net Pay",
		numWidth, "Annual Net"))
	sb.WriteString(strings.Repeat("-", 96) + "\n")

	sb.WriteString(tf.formatRow(compSet.BaseResult, nameWidth, numWidth, true))
	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 96) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}
	sb.WriteString(strings.Repeat("=", 96) + "\n")

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nCOMPARISON TO BASE (annualized)\n")
		sb.WriteString(strings.Repeat("-", 96) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s: %s\n", alt.ScenarioName, alt.Description))
			if alt.Failed() {
				sb.WriteString(fmt.Sprintf("  Not calculated:   %s\n", alt.Error))
				continue
			}
			sb.WriteString(fmt.Sprintf("  Net Pay:          %s (%s%%)\n",
				tf.signed(alt.AnnualNetDiffFromBase), alt.AnnualNetPctFromBase.StringFixed(2)))
			if !alt.AnnualTaxDiffFromBase.IsZero() {
				sb.WriteString(fmt.Sprintf("  Income Tax:       %s\n", tf.signed(alt.AnnualTaxDiffFromBase)))
			}
			if !alt.AnnualContribDiffFromBase.IsZero() {
				sb.WriteString(fmt.Sprintf("  CPP/CPP2/EI:      %s\n", tf.signed(alt.AnnualContribDiffFromBase)))
			}
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nSUMMARY\n")
		sb.WriteString(strings.Repeat("-", 96) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("* %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single scenario row
func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	name := result.ScenarioName
	if isBase {
		name += " (base)"
	}

	if result.Failed() {
		return fmt.Sprintf("%-*s %-4s %-12s %*s\n",
			nameWidth, tf.truncate(name, nameWidth), result.Province, result.PayFrequency,
			numWidth, strings.ToUpper(result.Outcome))
	}

	return fmt.Sprintf("%-*s %-4s %-12s %*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		result.Province, result.PayFrequency,
		numWidth, output.FormatCurrency(result.Contributions),
		numWidth, output.FormatCurrency(result.IncomeTax),
		numWidth, output.FormatCurrency(result.NetPay),
		numWidth, output.FormatCurrency(result.AnnualNetPay))
}

// signed prefixes a + on increases; FormatCurrency already marks decreases
func (tf *TableFormatter) signed(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+" + output.FormatCurrency(delta)
	}
	return output.FormatCurrency(delta)
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a compact single-line summary of annual net deltas
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", output.FormatCurrency(compSet.BaseResult.AnnualNetPay)))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		switch {
		case alt.Failed():
			change = alt.Outcome
		case !alt.AnnualNetDiffFromBase.IsZero():
			change = tf.signed(alt.AnnualNetDiffFromBase)
		}
		sb.WriteString(fmt.Sprintf("%s: %s", alt.ScenarioName, change))
	}

	return sb.String()
}
