package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/calculation"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

// Report is what every formatter renders: one or more calculation outcomes.
// A single calculation is a report with one item and no run ID.
type Report struct {
	RunID     string                  `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Generated time.Time               `json:"generated" yaml:"generated"`
	Items     []calculation.BatchItem `json:"items" yaml:"items"`
	Succeeded int                     `json:"succeeded" yaml:"succeeded"`
	Failed    int                     `json:"failed" yaml:"failed"`
}

// NewResultReport wraps a single successful calculation
func NewResultReport(result domain.CalculationResult) *Report {
	return &Report{
		Generated: time.Now(),
		Items: []calculation.BatchItem{{
			EmployeeID: result.EmployeeID,
			Result:     &result,
			Outcome:    calculation.OutcomeOK,
		}},
		Succeeded: 1,
	}
}

// NewBatchReport wraps a batch run
func NewBatchReport(batch *calculation.BatchResult) *Report {
	return &Report{
		RunID:     batch.RunID.String(),
		Generated: batch.Finished,
		Items:     batch.Items,
		Succeeded: batch.Succeeded,
		Failed:    batch.Failed,
	}
}

// NewProjectionReport has one item per projected pay period
func NewProjectionReport(proj *calculation.AnnualProjection) *Report {
	report := &Report{Generated: time.Now()}
	for i := range proj.Periods {
		report.Items = append(report.Items, calculation.BatchItem{
			Index:      i,
			EmployeeID: proj.EmployeeID,
			Result:     &proj.Periods[i],
			Outcome:    calculation.OutcomeOK,
		})
	}
	report.Succeeded = len(report.Items)
	return report
}

// Results returns the successful results in item order
func (r *Report) Results() []domain.CalculationResult {
	results := make([]domain.CalculationResult, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Result != nil {
			results = append(results, *item.Result)
		}
	}
	return results
}

// Formatter renders a report into a specific output format
type Formatter interface {
	Name() string
	Format(report *Report) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(report *Report) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(report *Report) ([]byte, error) { return f.F(report) }

var formatters = map[string]Formatter{}

// aliases map alternative names onto registered formatters
var aliases = map[string]string{
	"verbose":         "console",
	"console-verbose": "console",
	"table":           "console-lite",
	"yml":             "yaml",
}

func register(f Formatter) { formatters[f.Name()] = f }

func init() {
	register(ConsoleFormatter{})
	register(ConsoleVerboseFormatter{})
	register(CSVSummarizer{})
	register(CSVDetailed{})
	register(JSONFormatter{Pretty: true})
	register(YAMLFormatter{})
	register(HTMLFormatter{})
}

// GetFormatterByName returns the formatter registered under name or alias, or nil
func GetFormatterByName(name string) Formatter {
	name = strings.ToLower(strings.TrimSpace(name))
	if target, ok := aliases[name]; ok {
		name = target
	}
	return formatters[name]
}

// AvailableFormatterNames lists registered formatter names in sorted order
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists the accepted aliases in sorted order
func AvailableFormatAliases() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFormatted renders report with f and writes it to a timestamped file
// in the working directory, returning the file name
func WriteFormatted(f Formatter, report *Report, ext string) (string, error) {
	data, err := f.Format(report)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("payroll_report_%s.%s", time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}

// FormatCurrency renders an amount as dollars and cents
func FormatCurrency(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Neg().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

// FormatPercentage renders a value that is already a percentage
func FormatPercentage(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}

// FormatRate renders a fractional rate as a percentage, keeping up to four decimals
func FormatRate(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(4).String() + "%"
}
