package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
)

// CSVSummarizer implements the summary CSV output (one row per employee).
// Failed items keep their row with the outcome and error filled in.
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *Report) ([]byte, error) {
	header := []string{"EmployeeID", "Outcome", "Province", "PayDate", "Gross", "CPP", "CPP2", "EI", "FederalTax", "ProvincialTax", "NetPay", "Error"}
	return writeCSV(header, report, func(r domain.CalculationResult) []string {
		return []string{
			string(r.Province),
			r.PayDate.String(),
			r.GrossEarnings.StringFixed(2),
			r.CPP.StringFixed(2),
			r.CPP2.StringFixed(2),
			r.EI.StringFixed(2),
			r.FederalTax.StringFixed(2),
			r.ProvincialTax.StringFixed(2),
			r.NetPay.StringFixed(2),
		}
	})
}

// CSVDetailed includes every amount on the result, employer contributions and YTD
type CSVDetailed struct{}

func (c CSVDetailed) Name() string { return "detailed-csv" }

func (c CSVDetailed) Format(report *Report) ([]byte, error) {
	header := []string{
		"EmployeeID", "Outcome", "Province", "EmploymentStandards", "PayFrequency", "PayDate",
		"Gross", "Pensionable", "Insurable", "Taxable",
		"CPP", "CPP2", "EI", "FederalTax", "ProvincialTax", "TotalDeductions", "NetPay",
		"EmployerCPP", "EmployerCPP2", "EmployerEI",
		"YearsOfService", "VacationRate", "VacationPay", "VacationPaidOut", "HolidayPay",
		"YTDGross", "YTDCPP", "YTDCPP2", "YTDEI", "YTDFederalTax", "YTDProvincialTax",
		"EditionCPPEI", "EditionFederalTax", "EditionProvincialTax", "EditionVacation", "EditionHoliday",
		"Error",
	}
	return writeCSV(header, report, func(r domain.CalculationResult) []string {
		return []string{
			string(r.Province), string(r.EmploymentStandards), string(r.PayFrequency), r.PayDate.String(),
			r.GrossEarnings.StringFixed(2), r.PensionableEarnings.StringFixed(2),
			r.InsurableEarnings.StringFixed(2), r.TaxableIncome.StringFixed(2),
			r.CPP.StringFixed(2), r.CPP2.StringFixed(2), r.EI.StringFixed(2),
			r.FederalTax.StringFixed(2), r.ProvincialTax.StringFixed(2),
			r.TotalDeductions.StringFixed(2), r.NetPay.StringFixed(2),
			r.EmployerCPP.StringFixed(2), r.EmployerCPP2.StringFixed(2), r.EmployerEI.StringFixed(2),
			strconv.Itoa(r.YearsOfService), r.VacationRate.Round(6).String(), r.VacationPay.StringFixed(2),
			strconv.FormatBool(r.VacationPaidOut), r.HolidayPay.StringFixed(2),
			r.YTD.GrossEarnings.StringFixed(2), r.YTD.CPP.StringFixed(2), r.YTD.CPP2.StringFixed(2),
			r.YTD.EI.StringFixed(2), r.YTD.FederalTax.StringFixed(2), r.YTD.ProvincialTax.StringFixed(2),
			r.Editions.Contributions, r.Editions.FederalTax, r.Editions.ProvincialTax,
			r.Editions.VacationMinimum, r.Editions.HolidayPay,
		}
	})
}

// writeCSV lays out ID, outcome, the per-result columns and the error column.
// Failed rows leave the result columns blank.
func writeCSV(header []string, report *Report, columns func(domain.CalculationResult) []string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	width := len(header) - 3
	for _, item := range report.Items {
		record := []string{item.EmployeeID, item.Outcome}
		if item.Result != nil {
			record = append(record, columns(*item.Result)...)
		} else {
			record = append(record, make([]string, width)...)
		}
		record = append(record, item.Error)
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
