package domain

import (
	"fmt"
	"strings"
)

// Jurisdiction identifies the federal jurisdiction or a province/territory
type Jurisdiction string

const (
	Federal                 Jurisdiction = "CA"
	Alberta                 Jurisdiction = "AB"
	BritishColumbia         Jurisdiction = "BC"
	Manitoba                Jurisdiction = "MB"
	NewBrunswick            Jurisdiction = "NB"
	NewfoundlandAndLabrador Jurisdiction = "NL"
	NovaScotia              Jurisdiction = "NS"
	NorthwestTerritories    Jurisdiction = "NT"
	Nunavut                 Jurisdiction = "NU"
	Ontario                 Jurisdiction = "ON"
	PrinceEdwardIsland      Jurisdiction = "PE"
	Saskatchewan            Jurisdiction = "SK"
	Yukon                   Jurisdiction = "YT"
)

// Provinces lists every province and territory the engine supports (Quebec excluded)
var Provinces = []Jurisdiction{
	Alberta, BritishColumbia, Manitoba, NewBrunswick, NewfoundlandAndLabrador, NovaScotia,
	NorthwestTerritories, Nunavut, Ontario, PrinceEdwardIsland, Saskatchewan, Yukon,
}

// Jurisdictions lists all 13 supported jurisdictions
var Jurisdictions = append([]Jurisdiction{Federal}, Provinces...)

// IsValid reports whether j is a supported jurisdiction
func (j Jurisdiction) IsValid() bool {
	for _, known := range Jurisdictions {
		if j == known {
			return true
		}
	}
	return false
}

// IsProvince reports whether j is a province or territory
func (j Jurisdiction) IsProvince() bool {
	return j != Federal && j.IsValid()
}

// ParseJurisdiction accepts a case-insensitive jurisdiction code
func ParseJurisdiction(s string) (Jurisdiction, error) {
	j := Jurisdiction(strings.ToUpper(strings.TrimSpace(s)))
	if !j.IsValid() {
		return "", fmt.Errorf("unknown jurisdiction %q", s)
	}
	return j, nil
}

// Family is a rule family; each family is versioned independently per jurisdiction
type Family string

const (
	FamilyContributions   Family = "cpp_ei"
	FamilyFederalTax      Family = "federal_tax"
	FamilyProvincialTax   Family = "provincial_tax"
	FamilyVacationMinimum Family = "vacation_minimum"
	FamilyHolidayPay      Family = "holiday_pay"
)

// Families lists every rule family
var Families = []Family{
	FamilyContributions, FamilyFederalTax, FamilyProvincialTax, FamilyVacationMinimum, FamilyHolidayPay,
}

// IsValid reports whether f is a known rule family
func (f Family) IsValid() bool {
	for _, known := range Families {
		if f == known {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the family can be published for jurisdiction j.
// CPP/EI and federal tax are federal-only, provincial tax is province-only,
// employment standards exist everywhere.
func (f Family) AppliesTo(j Jurisdiction) bool {
	switch f {
	case FamilyContributions, FamilyFederalTax:
		return j == Federal
	case FamilyProvincialTax:
		return j.IsProvince()
	case FamilyVacationMinimum, FamilyHolidayPay:
		return j.IsValid()
	default:
		return false
	}
}

// PayFrequency is how often an employee is paid
type PayFrequency string

const (
	Weekly      PayFrequency = "weekly"
	Biweekly    PayFrequency = "biweekly"
	SemiMonthly PayFrequency = "semi_monthly"
	Monthly     PayFrequency = "monthly"
)

// PeriodsPerYear returns P, the number of pay periods in a year, or 0 if unknown
func (f PayFrequency) PeriodsPerYear() int {
	switch f {
	case Weekly:
		return 52
	case Biweekly:
		return 26
	case SemiMonthly:
		return 24
	case Monthly:
		return 12
	default:
		return 0
	}
}
