package output

import (
	"bytes"
	"fmt"
	"strings"
)

// ConsoleFormatter renders a compact one-line-per-employee summary
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console-lite" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "PAYROLL SUMMARY")
	fmt.Fprintln(&buf, strings.Repeat("=", 96))
	if report.RunID != "" {
		fmt.Fprintf(&buf, "Run: %s  (%d succeeded, %d failed)\n", report.RunID, report.Succeeded, report.Failed)
	}
	fmt.Fprintf(&buf, "%-12s %-4s %12s %10s %10s %10s %12s %12s\n",
		"Employee", "Prov", "Gross", "CPP+CPP2", "EI", "Tax", "Deductions", "Net Pay")
	fmt.Fprintln(&buf, strings.Repeat("-", 96))

	for _, item := range report.Items {
		if item.Result == nil {
			fmt.Fprintf(&buf, "%-12s FAILED (%s): %s\n", item.EmployeeID, item.Outcome, item.Error)
			continue
		}
		r := item.Result
		fmt.Fprintf(&buf, "%-12s %-4s %12s %10s %10s %10s %12s %12s\n",
			r.EmployeeID,
			r.Province,
			FormatCurrency(r.GrossEarnings),
			FormatCurrency(r.CPP.Add(r.CPP2)),
			FormatCurrency(r.EI),
			FormatCurrency(r.TotalTax),
			FormatCurrency(r.TotalDeductions),
			FormatCurrency(r.NetPay))
	}
	fmt.Fprintln(&buf, strings.Repeat("=", 96))
	return buf.Bytes(), nil
}
