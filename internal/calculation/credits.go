package calculation

import (
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/shopspring/decimal"
)

// basicPersonalAmount evaluates a flat or income-dependent BPA. The phase-out
// is linear in net income between the two thresholds, so the closed form is
// exact and no estimate-then-adjust pass is needed.
func basicPersonalAmount(bpa domain.BasicPersonalAmount, netIncome decimal.Decimal) decimal.Decimal {
	switch bpa.Kind {
	case domain.BPAPhaseOut:
		if netIncome.LessThanOrEqual(bpa.LowerIncome) {
			return bpa.Max
		}
		if netIncome.GreaterThanOrEqual(bpa.UpperIncome) {
			return bpa.Min
		}
		reduction := netIncome.Sub(bpa.LowerIncome).
			Mul(bpa.Max.Sub(bpa.Min)).
			Div(bpa.UpperIncome.Sub(bpa.LowerIncome))
		return clamp(bpa.Max.Sub(reduction), bpa.Min, bpa.Max)
	default:
		return bpa.Amount
	}
}

// supplementalCredit is Alberta's K5P: max(0, (K1P + K2P) − threshold) × factor.
// Both published factor representations are normalised to one rate first.
func supplementalCredit(credit domain.SupplementalCredit, k1p, k2p decimal.Decimal) decimal.Decimal {
	excess := floorZero(k1p.Add(k2p).Sub(credit.Threshold))
	return excess.Mul(credit.Factor.Rate())
}

// surtax is V1: the sum over tiers of rate × (basic provincial tax − threshold)
func surtax(tiers []domain.SurtaxTier, basicTax decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, tier := range tiers {
		total = total.Add(tier.Rate.Mul(floorZero(basicTax.Sub(tier.Threshold))))
	}
	return total
}

// healthPremium is V2: the highest tier whose threshold is below annual income
// charges base + rate × (A − threshold), capped at the tier maximum
func healthPremium(tiers []domain.HealthPremiumTier, income decimal.Decimal) decimal.Decimal {
	var selected *domain.HealthPremiumTier
	for i := range tiers {
		if income.GreaterThan(tiers[i].Threshold) {
			selected = &tiers[i]
		}
	}
	if selected == nil {
		return decimal.Zero
	}
	premium := selected.Base.Add(selected.Rate.Mul(income.Sub(selected.Threshold)))
	return decimal.Min(premium, selected.Cap)
}

// reduction is S, never more than the tax it reduces
func reduction(r domain.TaxReduction, basicTax, surtax, income decimal.Decimal) decimal.Decimal {
	switch r.Kind {
	case domain.ReductionBCLowIncome:
		phaseOut := floorZero(income.Sub(r.Threshold)).Mul(r.Rate)
		return decimal.Min(basicTax, floorZero(r.Base.Sub(phaseOut)))
	case domain.ReductionONLowIncome:
		tax := basicTax.Add(surtax)
		return decimal.Min(tax, floorZero(two.Mul(r.Base).Sub(tax)))
	default:
		return decimal.Zero
	}
}
