package output

import (
	"fmt"
	"strings"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorMuted   = lipgloss.Color("#888888")
	colorDanger  = lipgloss.Color("#FF5F87")
	colorSuccess = lipgloss.Color("#04B575")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Width(28)
	valueStyle   = lipgloss.NewStyle().Width(14).Align(lipgloss.Right)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
	netStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPrimary).Padding(0, 1)
)

// ConsoleVerboseFormatter renders a full pay statement per employee
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string { return "console" }

func (c ConsoleVerboseFormatter) Format(report *Report) ([]byte, error) {
	var blocks []string
	header := titleStyle.Render("PAYROLL DEDUCTIONS AND ENTITLEMENTS")
	if report.RunID != "" {
		header += "\n" + mutedStyle.Render(fmt.Sprintf("Run %s: %d succeeded, %d failed",
			report.RunID, report.Succeeded, report.Failed))
	}
	blocks = append(blocks, header)

	for _, item := range report.Items {
		if item.Result == nil {
			blocks = append(blocks, errorStyle.Render(
				fmt.Sprintf("%s FAILED [%s]: %s", item.EmployeeID, item.Outcome, item.Error)))
			continue
		}
		blocks = append(blocks, cardStyle.Render(statement(*item.Result)))
	}
	return []byte(lipgloss.JoinVertical(lipgloss.Left, blocks...) + "\n"), nil
}

func statement(r domain.CalculationResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", titleStyle.Render(fmt.Sprintf("Employee %s", r.EmployeeID)))
	fmt.Fprintf(&sb, "%s\n\n", mutedStyle.Render(fmt.Sprintf("%s, %s, paid %s, standards %s",
		r.Province, r.PayFrequency, r.PayDate, r.EmploymentStandards)))

	section(&sb, "EARNINGS")
	row(&sb, "Gross earnings", r.GrossEarnings)
	if !r.HolidayPay.IsZero() {
		row(&sb, "  includes holiday pay", r.HolidayPay)
	}
	if r.VacationPaidOut {
		row(&sb, "  includes vacation pay", r.VacationPay)
	}
	row(&sb, "Pensionable earnings", r.PensionableEarnings)
	row(&sb, "Insurable earnings", r.InsurableEarnings)
	row(&sb, "Taxable income", r.TaxableIncome)

	section(&sb, "DEDUCTIONS")
	row(&sb, "CPP", r.CPP)
	row(&sb, "CPP2", r.CPP2)
	row(&sb, "EI", r.EI)
	row(&sb, "Federal tax", r.FederalTax)
	row(&sb, "Provincial tax", r.ProvincialTax)
	row(&sb, "Total deductions", r.TotalDeductions)
	fmt.Fprintf(&sb, "%s%s\n", labelStyle.Render("NET PAY"), netStyle.Inherit(valueStyle).Render(FormatCurrency(r.NetPay)))

	section(&sb, "EMPLOYER")
	row(&sb, "CPP", r.EmployerCPP)
	row(&sb, "CPP2", r.EmployerCPP2)
	row(&sb, "EI", r.EmployerEI)
	row(&sb, "Total employer cost", r.TotalEmployerCost())

	section(&sb, "ENTITLEMENTS")
	text(&sb, "Years of service", fmt.Sprintf("%d", r.YearsOfService))
	text(&sb, "Vacation rate", FormatRate(r.VacationRate))
	if r.VacationPaidOut {
		row(&sb, "Vacation pay (paid)", r.VacationPay)
	} else {
		row(&sb, "Vacation pay (accrued)", r.VacationPay)
	}
	for _, line := range r.HolidayLines {
		row(&sb, "Holiday "+line.Date.String(), line.Amount)
	}

	section(&sb, "YEAR TO DATE")
	row(&sb, "Gross earnings", r.YTD.GrossEarnings)
	row(&sb, "CPP", r.YTD.CPP)
	row(&sb, "CPP2", r.YTD.CPP2)
	row(&sb, "EI", r.YTD.EI)
	row(&sb, "Federal tax", r.YTD.FederalTax)
	row(&sb, "Provincial tax", r.YTD.ProvincialTax)

	section(&sb, "RULE EDITIONS")
	text(&sb, "cpp_ei", r.Editions.Contributions)
	text(&sb, "federal_tax", r.Editions.FederalTax)
	text(&sb, "provincial_tax", r.Editions.ProvincialTax)
	text(&sb, "vacation_minimum", r.Editions.VacationMinimum)
	text(&sb, "holiday_pay", r.Editions.HolidayPay)

	return strings.TrimRight(sb.String(), "\n")
}

func section(sb *strings.Builder, title string) {
	fmt.Fprintf(sb, "\n%s\n", sectionStyle.Render(title))
}

func row(sb *strings.Builder, label string, amount decimal.Decimal) {
	fmt.Fprintf(sb, "%s%s\n", labelStyle.Render(label), valueStyle.Render(FormatCurrency(amount)))
}

// text values are not width-bound; edition IDs can be long
func text(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, "%s%s\n", labelStyle.Render(label), value)
}
