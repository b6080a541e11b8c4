package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RuleMetadata identifies one published edition of one rule family for one jurisdiction
type RuleMetadata struct {
	Family        Family       `yaml:"family" json:"family"`
	Jurisdiction  Jurisdiction `yaml:"jurisdiction" json:"jurisdiction"`
	Edition       string       `yaml:"edition" json:"edition"`
	EffectiveDate Date         `yaml:"effective_date" json:"effective_date"`
	ExpiryDate    Date         `yaml:"expiry_date" json:"expiry_date"` // exclusive
	Source        string       `yaml:"source" json:"source"`
	LastUpdated   Date         `yaml:"last_updated" json:"last_updated"`
}

// RuleDocument is one configuration document as published on disk.
// Exactly one payload field is set, and it must match Metadata.Family.
type RuleDocument struct {
	Metadata        RuleMetadata           `yaml:"metadata" json:"metadata"`
	Contributions   *ContributionRules     `yaml:"cpp_ei,omitempty" json:"cpp_ei,omitempty"`
	FederalTax      *TaxTable              `yaml:"federal_tax,omitempty" json:"federal_tax,omitempty"`
	ProvincialTax   *TaxTable              `yaml:"provincial_tax,omitempty" json:"provincial_tax,omitempty"`
	VacationMinimum *VacationMinimumTable  `yaml:"vacation_minimum,omitempty" json:"vacation_minimum,omitempty"`
	HolidayPay      *HolidayPayFormulaSpec `yaml:"holiday_pay,omitempty" json:"holiday_pay,omitempty"`
}

// RuleEdition is a validated, date-windowed rule table. Editions are shared by
// every calculation reading the snapshot that holds them and must not be modified.
type RuleEdition struct {
	Jurisdiction Jurisdiction
	Family       Family
	ID           string
	Start        Date // inclusive
	End          Date // exclusive
	Source       string
	LastUpdated  Date

	Contributions *ContributionRules
	Tax           *TaxTable
	Vacation      *VacationMinimumTable
	Holiday       *HolidayPayFormulaSpec
}

// Covers reports whether date falls inside [Start, End)
func (e RuleEdition) Covers(date Date) bool {
	return !date.Before(e.Start) && date.Before(e.End)
}

func (e RuleEdition) String() string {
	return fmt.Sprintf("%s/%s %s [%s, %s)", e.Jurisdiction, e.Family, e.ID, e.Start, e.End)
}

// Edition converts the document into a RuleEdition, checking that the
// metadata is complete and that the payload matches the declared family.
func (d RuleDocument) Edition() (RuleEdition, error) {
	m := d.Metadata
	if !m.Family.IsValid() {
		return RuleEdition{}, fmt.Errorf("unknown family %q", m.Family)
	}
	if !m.Jurisdiction.IsValid() {
		return RuleEdition{}, fmt.Errorf("unknown jurisdiction %q", m.Jurisdiction)
	}
	if !m.Family.AppliesTo(m.Jurisdiction) {
		return RuleEdition{}, fmt.Errorf("family %s is not published for jurisdiction %s", m.Family, m.Jurisdiction)
	}
	if m.Edition == "" {
		return RuleEdition{}, errors.New("edition is required")
	}
	if m.EffectiveDate.IsZero() || m.ExpiryDate.IsZero() {
		return RuleEdition{}, errors.New("effective_date and expiry_date are required")
	}
	if !m.EffectiveDate.Before(m.ExpiryDate) {
		return RuleEdition{}, fmt.Errorf("effective_date %s must be before expiry_date %s", m.EffectiveDate, m.ExpiryDate)
	}

	payloads := 0
	for _, set := range []bool{d.Contributions != nil, d.FederalTax != nil, d.ProvincialTax != nil, d.VacationMinimum != nil, d.HolidayPay != nil} {
		if set {
			payloads++
		}
	}
	if payloads != 1 {
		return RuleEdition{}, fmt.Errorf("document must carry exactly one payload, found %d", payloads)
	}

	edition := RuleEdition{
		Jurisdiction: m.Jurisdiction,
		Family:       m.Family,
		ID:           m.Edition,
		Start:        m.EffectiveDate,
		End:          m.ExpiryDate,
		Source:       m.Source,
		LastUpdated:  m.LastUpdated,
	}
	switch m.Family {
	case FamilyContributions:
		edition.Contributions = d.Contributions
	case FamilyFederalTax:
		edition.Tax = d.FederalTax
	case FamilyProvincialTax:
		edition.Tax = d.ProvincialTax
	case FamilyVacationMinimum:
		edition.Vacation = d.VacationMinimum
	case FamilyHolidayPay:
		edition.Holiday = d.HolidayPay
	}
	if err := edition.Validate(); err != nil {
		return RuleEdition{}, err
	}
	return edition, nil
}

// Validate checks the payload for the edition's family
func (e RuleEdition) Validate() error {
	switch e.Family {
	case FamilyContributions:
		if e.Contributions == nil {
			return errors.New("cpp_ei payload is missing")
		}
		return e.Contributions.Validate()
	case FamilyFederalTax, FamilyProvincialTax:
		if e.Tax == nil {
			return fmt.Errorf("%s payload is missing", e.Family)
		}
		return e.Tax.Validate()
	case FamilyVacationMinimum:
		if e.Vacation == nil {
			return errors.New("vacation_minimum payload is missing")
		}
		return e.Vacation.Validate()
	case FamilyHolidayPay:
		if e.Holiday == nil {
			return errors.New("holiday_pay payload is missing")
		}
		return e.Holiday.Validate()
	default:
		return fmt.Errorf("unknown family %q", e.Family)
	}
}

// =============================================================================
// CPP / CPP2 / EI
// =============================================================================

// ContributionRules holds the annual CPP, CPP2 and EI parameters
type ContributionRules struct {
	CPP  CPPRules  `yaml:"cpp" json:"cpp"`
	CPP2 CPP2Rules `yaml:"cpp2" json:"cpp2"`
	EI   EIRules   `yaml:"ei" json:"ei"`
}

// CPPRules contains base + first additional CPP parameters
type CPPRules struct {
	Rate            decimal.Decimal `yaml:"rate" json:"rate"`           // total employee rate, e.g. 0.0595
	BaseRate        decimal.Decimal `yaml:"base_rate" json:"base_rate"` // base portion eligible for the K2 credit, e.g. 0.0495
	BasicExemption  decimal.Decimal `yaml:"basic_exemption" json:"basic_exemption"`
	YMPE            decimal.Decimal `yaml:"ympe" json:"ympe"`
	MaxContribution decimal.Decimal `yaml:"max_contribution" json:"max_contribution"`
}

// MaxBaseContribution is the part of the annual maximum that earns the federal/provincial credit
func (c CPPRules) MaxBaseContribution() decimal.Decimal {
	return c.MaxContribution.Mul(c.BaseRate).Div(c.Rate)
}

// CPP2Rules contains second additional CPP parameters
type CPP2Rules struct {
	Rate            decimal.Decimal `yaml:"rate" json:"rate"`
	YAMPE           decimal.Decimal `yaml:"yampe" json:"yampe"`
	MaxContribution decimal.Decimal `yaml:"max_contribution" json:"max_contribution"`
}

// EIRules contains Employment Insurance premium parameters
type EIRules struct {
	Rate                 decimal.Decimal `yaml:"rate" json:"rate"`
	MaxInsurableEarnings decimal.Decimal `yaml:"max_insurable_earnings" json:"max_insurable_earnings"`
	MaxPremium           decimal.Decimal `yaml:"max_premium" json:"max_premium"`
	EmployerMultiplier   decimal.Decimal `yaml:"employer_multiplier" json:"employer_multiplier"`
}

// Validate checks the contribution parameters
func (c ContributionRules) Validate() error {
	positive := []struct {
		name  string
		value decimal.Decimal
	}{
		{"cpp.rate", c.CPP.Rate},
		{"cpp.base_rate", c.CPP.BaseRate},
		{"cpp.ympe", c.CPP.YMPE},
		{"cpp.max_contribution", c.CPP.MaxContribution},
		{"cpp2.rate", c.CPP2.Rate},
		{"cpp2.yampe", c.CPP2.YAMPE},
		{"cpp2.max_contribution", c.CPP2.MaxContribution},
		{"ei.rate", c.EI.Rate},
		{"ei.max_insurable_earnings", c.EI.MaxInsurableEarnings},
		{"ei.max_premium", c.EI.MaxPremium},
		{"ei.employer_multiplier", c.EI.EmployerMultiplier},
	}
	for _, p := range positive {
		if !p.value.IsPositive() {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}
	if c.CPP.BasicExemption.IsNegative() {
		return errors.New("cpp.basic_exemption cannot be negative")
	}
	if c.CPP.BaseRate.GreaterThan(c.CPP.Rate) {
		return errors.New("cpp.base_rate cannot exceed cpp.rate")
	}
	if !c.CPP2.YAMPE.GreaterThan(c.CPP.YMPE) {
		return errors.New("cpp2.yampe must be above cpp.ympe")
	}
	return nil
}

// =============================================================================
// INCOME TAX
// =============================================================================

// TaxBracket is one piece of T(A) = A × Rate − Constant, applying from Threshold upward
type TaxBracket struct {
	Threshold decimal.Decimal `yaml:"threshold" json:"threshold"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
	Constant  decimal.Decimal `yaml:"constant" json:"constant"`
}

// TaxTable is a federal or provincial T4127 table plus its jurisdiction-specific adjustments
type TaxTable struct {
	Brackets            []TaxBracket        `yaml:"brackets" json:"brackets"`
	BasicPersonalAmount BasicPersonalAmount `yaml:"basic_personal_amount" json:"basic_personal_amount"`
	EmploymentAmount    *decimal.Decimal    `yaml:"employment_amount,omitempty" json:"employment_amount,omitempty"`
	Surtax              []SurtaxTier        `yaml:"surtax,omitempty" json:"surtax,omitempty"`
	HealthPremium       []HealthPremiumTier `yaml:"health_premium,omitempty" json:"health_premium,omitempty"`
	Reduction           *TaxReduction       `yaml:"reduction,omitempty" json:"reduction,omitempty"`
	SupplementalCredit  *SupplementalCredit `yaml:"supplemental_credit,omitempty" json:"supplemental_credit,omitempty"`
}

// LowestRate is the rate applied to non-refundable credits
func (t TaxTable) LowestRate() decimal.Decimal {
	if len(t.Brackets) == 0 {
		return decimal.Zero
	}
	return t.Brackets[0].Rate
}

// BPAKind selects how the Basic Personal Amount is derived
type BPAKind string

const (
	BPAFlat     BPAKind = "flat"
	BPAPhaseOut BPAKind = "phase_out"
)

// BasicPersonalAmount is either a constant or an income-dependent amount that
// declines linearly from Max to Min between LowerIncome and UpperIncome.
type BasicPersonalAmount struct {
	Kind        BPAKind         `yaml:"kind" json:"kind"`
	Amount      decimal.Decimal `yaml:"amount,omitempty" json:"amount,omitempty"`
	Max         decimal.Decimal `yaml:"max,omitempty" json:"max,omitempty"`
	Min         decimal.Decimal `yaml:"min,omitempty" json:"min,omitempty"`
	LowerIncome decimal.Decimal `yaml:"lower_income,omitempty" json:"lower_income,omitempty"`
	UpperIncome decimal.Decimal `yaml:"upper_income,omitempty" json:"upper_income,omitempty"`
}

// SurtaxTier adds Rate × (basic tax − Threshold) when basic tax exceeds Threshold
type SurtaxTier struct {
	Threshold decimal.Decimal `yaml:"threshold" json:"threshold"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
}

// HealthPremiumTier charges min(Cap, Base + Rate × (A − Threshold)) for incomes above Threshold
type HealthPremiumTier struct {
	Threshold decimal.Decimal `yaml:"threshold" json:"threshold"`
	Base      decimal.Decimal `yaml:"base" json:"base"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
	Cap       decimal.Decimal `yaml:"cap" json:"cap"`
}

// ReductionKind selects a provincial tax-reduction formula
type ReductionKind string

const (
	// ReductionBCLowIncome is Base, phased out at Rate for income above Threshold
	ReductionBCLowIncome ReductionKind = "bc_low_income"
	// ReductionONLowIncome is 2 × Base minus the tax it reduces
	ReductionONLowIncome ReductionKind = "on_low_income"
)

// TaxReduction is a provincial low-income tax reduction
type TaxReduction struct {
	Kind      ReductionKind   `yaml:"kind" json:"kind"`
	Base      decimal.Decimal `yaml:"base" json:"base"`
	Threshold decimal.Decimal `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Rate      decimal.Decimal `yaml:"rate,omitempty" json:"rate,omitempty"`
}

// SupplementalCredit is Alberta's K5P: max(0, (K1P + K2P) − Threshold) × Factor
type SupplementalCredit struct {
	Threshold decimal.Decimal `yaml:"threshold" json:"threshold"`
	Factor    CreditFactor    `yaml:"factor" json:"factor"`
}

// FactorKind tags the representation a credit factor is published in
type FactorKind string

const (
	FactorFraction FactorKind = "fraction"
	FactorDecimal  FactorKind = "decimal"
)

// CreditFactor is published as numerator/denominator in older editions and as
// a decimal in newer ones.
type CreditFactor struct {
	Kind        FactorKind      `yaml:"kind" json:"kind"`
	Numerator   decimal.Decimal `yaml:"numerator,omitempty" json:"numerator,omitempty"`
	Denominator decimal.Decimal `yaml:"denominator,omitempty" json:"denominator,omitempty"`
	Value       decimal.Decimal `yaml:"value,omitempty" json:"value,omitempty"`
}

// Rate normalises either representation to a single decimal rate
func (f CreditFactor) Rate() decimal.Decimal {
	if f.Kind == FactorFraction {
		return f.Numerator.Div(f.Denominator)
	}
	return f.Value
}

// Validate checks brackets and every optional adjustment
func (t TaxTable) Validate() error {
	if len(t.Brackets) == 0 {
		return errors.New("at least one bracket is required")
	}
	if !t.Brackets[0].Threshold.IsZero() {
		return errors.New("first bracket must start at 0")
	}
	for i, b := range t.Brackets {
		if b.Rate.IsNegative() || b.Constant.IsNegative() {
			return fmt.Errorf("bracket %d: rate and constant cannot be negative", i)
		}
		if i == 0 {
			continue
		}
		prev := t.Brackets[i-1]
		if !b.Threshold.GreaterThan(prev.Threshold) {
			return fmt.Errorf("bracket %d: thresholds must be strictly increasing", i)
		}
		if b.Rate.LessThan(prev.Rate) {
			return fmt.Errorf("bracket %d: marginal rates must not decrease", i)
		}
	}

	if err := t.BasicPersonalAmount.Validate(); err != nil {
		return fmt.Errorf("basic_personal_amount: %w", err)
	}
	if t.EmploymentAmount != nil && t.EmploymentAmount.IsNegative() {
		return errors.New("employment_amount cannot be negative")
	}
	for i, s := range t.Surtax {
		if s.Threshold.IsNegative() || !s.Rate.IsPositive() {
			return fmt.Errorf("surtax tier %d: threshold must be >= 0 and rate > 0", i)
		}
	}
	for i, h := range t.HealthPremium {
		if h.Threshold.IsNegative() || h.Base.IsNegative() || h.Rate.IsNegative() || h.Cap.IsNegative() {
			return fmt.Errorf("health_premium tier %d: values cannot be negative", i)
		}
		if i > 0 && !h.Threshold.GreaterThan(t.HealthPremium[i-1].Threshold) {
			return fmt.Errorf("health_premium tier %d: thresholds must be strictly increasing", i)
		}
	}
	if t.Reduction != nil {
		switch t.Reduction.Kind {
		case ReductionBCLowIncome, ReductionONLowIncome:
		default:
			return fmt.Errorf("reduction: unknown kind %q", t.Reduction.Kind)
		}
		if t.Reduction.Base.IsNegative() || t.Reduction.Threshold.IsNegative() || t.Reduction.Rate.IsNegative() {
			return errors.New("reduction: values cannot be negative")
		}
	}
	if t.SupplementalCredit != nil {
		if t.SupplementalCredit.Threshold.IsNegative() {
			return errors.New("supplemental_credit: threshold cannot be negative")
		}
		if err := t.SupplementalCredit.Factor.Validate(); err != nil {
			return fmt.Errorf("supplemental_credit: %w", err)
		}
	}
	return nil
}

// Validate checks the BPA variant's parameters
func (b BasicPersonalAmount) Validate() error {
	switch b.Kind {
	case BPAFlat:
		if b.Amount.IsNegative() {
			return errors.New("amount cannot be negative")
		}
	case BPAPhaseOut:
		if b.Min.IsNegative() || b.Max.LessThan(b.Min) {
			return errors.New("phase_out requires 0 <= min <= max")
		}
		if !b.UpperIncome.GreaterThan(b.LowerIncome) {
			return errors.New("phase_out requires upper_income > lower_income")
		}
	default:
		return fmt.Errorf("unknown kind %q", b.Kind)
	}
	return nil
}

// Validate checks the factor representation
func (f CreditFactor) Validate() error {
	switch f.Kind {
	case FactorFraction:
		if !f.Denominator.IsPositive() || f.Numerator.IsNegative() {
			return errors.New("fraction factor requires numerator >= 0 and denominator > 0")
		}
	case FactorDecimal:
		if f.Value.IsNegative() {
			return errors.New("decimal factor cannot be negative")
		}
	default:
		return fmt.Errorf("unknown factor kind %q", f.Kind)
	}
	return nil
}

// =============================================================================
// EMPLOYMENT STANDARDS
// =============================================================================

// VacationMinimumTable lists the legislated minimum vacation-pay rate by years of service
type VacationMinimumTable struct {
	Tiers []VacationTier `yaml:"tiers" json:"tiers"`
}

// VacationTier applies from YearsOfService completed years. The rate is either
// given directly or as Weeks/WeeksDenominator; the denominator is published
// with the rule (Saskatchewan uses 52, most jurisdictions 50).
type VacationTier struct {
	YearsOfService   int             `yaml:"years_of_service" json:"years_of_service"`
	Rate             decimal.Decimal `yaml:"rate,omitempty" json:"rate,omitempty"`
	Weeks            int             `yaml:"weeks,omitempty" json:"weeks,omitempty"`
	WeeksDenominator int             `yaml:"weeks_denominator,omitempty" json:"weeks_denominator,omitempty"`
}

// EffectiveRate returns the tier's rate as a fraction of wages
func (t VacationTier) EffectiveRate() decimal.Decimal {
	if t.Weeks > 0 {
		return decimal.NewFromInt(int64(t.Weeks)).Div(decimal.NewFromInt(int64(t.WeeksDenominator)))
	}
	return t.Rate
}

// Validate checks tier ordering and that rates never fall with service
func (v VacationMinimumTable) Validate() error {
	if len(v.Tiers) == 0 {
		return errors.New("at least one vacation tier is required")
	}
	if v.Tiers[0].YearsOfService != 0 {
		return errors.New("first vacation tier must start at 0 years of service")
	}
	for i, tier := range v.Tiers {
		hasRate := tier.Rate.IsPositive()
		hasWeeks := tier.Weeks > 0
		if hasRate == hasWeeks {
			return fmt.Errorf("vacation tier %d: set exactly one of rate or weeks", i)
		}
		if hasWeeks && tier.WeeksDenominator <= 0 {
			return fmt.Errorf("vacation tier %d: weeks_denominator must be positive", i)
		}
		if tier.EffectiveRate().GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("vacation tier %d: rate must be below 100%%", i)
		}
		if i == 0 {
			continue
		}
		prev := v.Tiers[i-1]
		if tier.YearsOfService <= prev.YearsOfService {
			return fmt.Errorf("vacation tier %d: years_of_service must be strictly increasing", i)
		}
		if tier.EffectiveRate().LessThan(prev.EffectiveRate()) {
			return fmt.Errorf("vacation tier %d: rate must not decrease with service", i)
		}
	}
	return nil
}

// HolidayFormulaKind is the closed set of general-holiday pay formulas
type HolidayFormulaKind string

const (
	// HolidayPercentOfWages pays Rate × wages earned in the lookback window ("5% of 28 days")
	HolidayPercentOfWages HolidayFormulaKind = "percent_of_wages"
	// HolidayAverageFixedDivisor pays wages in the window ÷ a fixed Divisor ("4 weeks ÷ 20")
	HolidayAverageFixedDivisor HolidayFormulaKind = "average_fixed_divisor"
	// HolidayAverageDaysWorked pays wages in the window ÷ days actually worked
	HolidayAverageDaysWorked HolidayFormulaKind = "average_days_worked"
)

// LookbackUnit measures the holiday-pay window
type LookbackUnit string

const (
	LookbackDays       LookbackUnit = "days"
	LookbackWeeks      LookbackUnit = "weeks"
	LookbackPayPeriods LookbackUnit = "pay_periods"
)

// Lookback is the window immediately preceding the holiday
type Lookback struct {
	Unit   LookbackUnit `yaml:"unit" json:"unit"`
	Length int          `yaml:"length" json:"length"`
}

// HolidayPayFormulaSpec describes how a jurisdiction computes general holiday pay
type HolidayPayFormulaSpec struct {
	Kind               HolidayFormulaKind `yaml:"kind" json:"kind"`
	Lookback           Lookback           `yaml:"lookback" json:"lookback"`
	Rate               decimal.Decimal    `yaml:"rate,omitempty" json:"rate,omitempty"`
	Divisor            decimal.Decimal    `yaml:"divisor,omitempty" json:"divisor,omitempty"`
	IncludeVacationPay bool               `yaml:"include_vacation_pay" json:"include_vacation_pay"`
}

// Validate checks the variant's parameters
func (h HolidayPayFormulaSpec) Validate() error {
	switch h.Lookback.Unit {
	case LookbackDays, LookbackWeeks, LookbackPayPeriods:
	default:
		return fmt.Errorf("unknown lookback unit %q", h.Lookback.Unit)
	}
	if h.Lookback.Length <= 0 {
		return errors.New("lookback length must be positive")
	}
	switch h.Kind {
	case HolidayPercentOfWages:
		if !h.Rate.IsPositive() {
			return errors.New("percent_of_wages requires a positive rate")
		}
	case HolidayAverageFixedDivisor:
		if !h.Divisor.IsPositive() {
			return errors.New("average_fixed_divisor requires a positive divisor")
		}
	case HolidayAverageDaysWorked:
	default:
		return fmt.Errorf("unknown holiday formula kind %q", h.Kind)
	}
	return nil
}
