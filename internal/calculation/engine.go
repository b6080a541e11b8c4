package calculation

import (
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
)

// SnapshotSource supplies the rule snapshot in effect; *rules.Store implements it
type SnapshotSource interface {
	Snapshot() *rules.Snapshot
}

// Engine is the calculation facade. It holds no per-employee state and is
// safe for concurrent use.
type Engine struct {
	source  SnapshotSource
	Logger  Logger
	Metrics *Metrics
	Debug   bool // Log every intermediate factor of each calculation
}

// NewEngine creates an engine reading rules from source
func NewEngine(source SnapshotSource) *Engine {
	return &Engine{
		source: source,
		Logger: NopLogger{},
	}
}

// SetLogger sets the logger; nil installs a no-op logger
func (e *Engine) SetLogger(logger Logger) {
	if logger == nil {
		e.Logger = NopLogger{}
		return
	}
	e.Logger = logger
}

// resolvedRules is every edition one calculation needs, all from one snapshot
type resolvedRules struct {
	contributions domain.RuleEdition
	federal       domain.RuleEdition
	provincial    domain.RuleEdition
	vacation      domain.RuleEdition
	holiday       domain.RuleEdition
}

// Calculate computes deductions and entitlements for one employee and pay
// period against the snapshot current at the time of the call
func (e *Engine) Calculate(req domain.CalculationRequest) (domain.CalculationResult, error) {
	return e.CalculateWith(e.source.Snapshot(), req)
}

// CalculateWith computes against an explicit snapshot. Identical requests and
// snapshots always produce identical results.
func (e *Engine) CalculateWith(snapshot *rules.Snapshot, req domain.CalculationRequest) (domain.CalculationResult, error) {
	start := time.Now()
	result, err := e.calculate(snapshot, req)
	e.Metrics.ObserveCalculation(string(req.Province), err, time.Since(start))
	if err != nil {
		e.Logger.Warnf("calculation for employee %q failed: %v", req.EmployeeID, err)
		return domain.CalculationResult{}, err
	}
	return result, nil
}

func (e *Engine) calculate(snapshot *rules.Snapshot, req domain.CalculationRequest) (domain.CalculationResult, error) {
	if err := ValidateRequest(req); err != nil {
		return domain.CalculationResult{}, err
	}

	rr, err := resolveAll(snapshot, req)
	if err != nil {
		return domain.CalculationResult{}, err
	}

	p := req.PayFrequency.PeriodsPerYear()
	standards := req.StandardsJurisdiction()
	years := req.HireDate.CompletedYearsUntil(req.PayDate)

	// Holiday pay
	lines, holidayPay, err := HolidayPayForPeriod(req.WageHistory, req.Holidays, *rr.holiday.Holiday)
	if err != nil {
		return domain.CalculationResult{}, err
	}

	// Vacation pay is earned on wages including holiday pay
	vacationRate, err := EffectiveVacationRate(standards, *rr.vacation.Vacation, years, req.VacationRateOverride)
	if err != nil {
		return domain.CalculationResult{}, err
	}
	vacationPay := VacationPay(req.RegularWages.Add(holidayPay), vacationRate)
	paidOut := req.Method() == domain.VacationPayEachPeriod

	// Earnings
	gross := req.RegularWages.Add(holidayPay).Add(req.TaxableBenefits)
	if paidOut {
		gross = gross.Add(vacationPay)
	}
	pensionable := gross
	insurable := gross.Sub(req.TaxableBenefits)

	// CPP / CPP2 / EI
	age := req.AgeAt(req.PayDate)
	cppExempt := req.CPPExempt || (age >= 0 && (age < 18 || age >= 70))
	contributionCalc := NewContributionCalculator(*rr.contributions.Contributions)
	contrib := contributionCalc.Calculate(ContributionInput{
		PeriodsPerYear:      p,
		PensionableEarnings: pensionable,
		InsurableEarnings:   insurable,
		YTD:                 req.YTD,
		CPPExempt:           cppExempt,
		EIExempt:            req.EIExempt,
	})

	// Income tax
	taxable := floorZero(gross.Sub(req.RPPContributions).Sub(req.UnionDues))
	taxCalc := NewIncomeTaxCalculator(contributionCalc)
	federal := taxCalc.CalculateFederalTax(*rr.federal.Tax, TaxInput{
		PeriodsPerYear:   p,
		TaxableIncome:    taxable,
		CPP:              contrib.CPP,
		CPP2:             contrib.CPP2,
		EI:               contrib.EI,
		ClaimAmount:      req.FederalClaimAmount,
		AdditionalClaims: req.FederalAdditionalClaims,
	})
	provincial := taxCalc.CalculateProvincialTax(*rr.provincial.Tax, TaxInput{
		PeriodsPerYear:   p,
		TaxableIncome:    taxable,
		CPP:              contrib.CPP,
		CPP2:             contrib.CPP2,
		EI:               contrib.EI,
		ClaimAmount:      req.ProvincialClaimAmount,
		AdditionalClaims: req.ProvincialAdditionalClaims,
	})

	if e.Debug {
		e.logBreakdown(req, "federal", federal)
		e.logBreakdown(req, string(req.Province), provincial)
	}

	totalTax := federal.PeriodTax.Add(provincial.PeriodTax)
	totalDeductions := contrib.CPP.Add(contrib.CPP2).Add(contrib.EI).
		Add(totalTax).Add(req.RPPContributions).Add(req.UnionDues)
	// taxable benefits are not paid in cash
	netPay := gross.Sub(req.TaxableBenefits).Sub(totalDeductions)

	ytd := req.YTD
	ytd.CPP = ytd.CPP.Add(contrib.CPP)
	ytd.CPP2 = ytd.CPP2.Add(contrib.CPP2)
	ytd.EI = ytd.EI.Add(contrib.EI)
	ytd.PensionableEarnings = ytd.PensionableEarnings.Add(pensionable)
	ytd.InsurableEarnings = ytd.InsurableEarnings.Add(insurable)
	ytd.GrossEarnings = ytd.GrossEarnings.Add(gross)
	ytd.FederalTax = ytd.FederalTax.Add(federal.PeriodTax)
	ytd.ProvincialTax = ytd.ProvincialTax.Add(provincial.PeriodTax)

	return domain.CalculationResult{
		EmployeeID:          req.EmployeeID,
		PayDate:             req.PayDate,
		Province:            req.Province,
		EmploymentStandards: standards,
		PayFrequency:        req.PayFrequency,
		Editions: domain.EditionsUsed{
			Contributions:   rr.contributions.ID,
			FederalTax:      rr.federal.ID,
			ProvincialTax:   rr.provincial.ID,
			VacationMinimum: rr.vacation.ID,
			HolidayPay:      rr.holiday.ID,
		},

		GrossEarnings:       gross,
		PensionableEarnings: pensionable,
		InsurableEarnings:   insurable,
		TaxableIncome:       taxable,

		CPP:           contrib.CPP,
		CPP2:          contrib.CPP2,
		EI:            contrib.EI,
		FederalTax:    federal.PeriodTax,
		ProvincialTax: provincial.PeriodTax,
		TotalTax:      totalTax,

		EmployerCPP:  contrib.EmployerCPP,
		EmployerCPP2: contrib.EmployerCPP2,
		EmployerEI:   contrib.EmployerEI,

		YearsOfService:  years,
		VacationRate:    vacationRate,
		VacationPay:     vacationPay,
		VacationPaidOut: paidOut,
		HolidayPay:      holidayPay,
		HolidayLines:    lines,

		TotalDeductions: totalDeductions,
		NetPay:          netPay,
		YTD:             ytd,
	}, nil
}

// resolveAll resolves every family from the same snapshot
func resolveAll(snapshot *rules.Snapshot, req domain.CalculationRequest) (resolvedRules, error) {
	var rr resolvedRules
	var err error
	standards := req.StandardsJurisdiction()

	lookups := []struct {
		j    domain.Jurisdiction
		f    domain.Family
		dest *domain.RuleEdition
	}{
		{domain.Federal, domain.FamilyContributions, &rr.contributions},
		{domain.Federal, domain.FamilyFederalTax, &rr.federal},
		{req.Province, domain.FamilyProvincialTax, &rr.provincial},
		{standards, domain.FamilyVacationMinimum, &rr.vacation},
		{standards, domain.FamilyHolidayPay, &rr.holiday},
	}
	for _, l := range lookups {
		if *l.dest, err = snapshot.Resolve(l.j, l.f, req.PayDate); err != nil {
			return resolvedRules{}, err
		}
	}
	return rr, nil
}

func (e *Engine) logBreakdown(req domain.CalculationRequest, level string, b TaxBreakdown) {
	e.Logger.Debugf("%s %s tax: A=%s R=%s K=%s TC=%s K1=%s K2=%s K4=%s K5P=%s basic=%s V1=%s V2=%s S=%s annual=%s period=%s",
		req.EmployeeID, level,
		b.AnnualIncome.StringFixed(2), b.Rate.String(), b.Constant.String(), b.ClaimAmount.StringFixed(2),
		b.ClaimCredit.StringFixed(4), b.ContributionCredit.StringFixed(4), b.EmploymentCredit.StringFixed(4),
		b.SupplementalCredit.StringFixed(4), b.BasicTax.StringFixed(4), b.Surtax.StringFixed(4),
		b.HealthPremium.StringFixed(4), b.Reduction.StringFixed(4), b.AnnualTax.StringFixed(4),
		b.PeriodTax.StringFixed(2))
}

// ensure the store satisfies the source contract
var _ SnapshotSource = (*rules.Store)(nil)
