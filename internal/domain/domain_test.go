package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCompletedYearsUntil(t *testing.T) {
	hire := MustParseDate("2020-03-15")

	tests := []struct {
		name string
		date string
		want int
	}{
		{"before hire", "2019-12-31", 0},
		{"first day", "2020-03-15", 0},
		{"day before anniversary", "2021-03-14", 0},
		{"on anniversary", "2021-03-15", 1},
		{"partial years round down", "2025-03-14", 4},
		{"five years", "2025-03-15", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hire.CompletedYearsUntil(MustParseDate(tt.date)))
		})
	}
}

func TestDateEncoding(t *testing.T) {
	t.Run("yaml unquoted and quoted", func(t *testing.T) {
		var doc struct {
			A Date `yaml:"a"`
			B Date `yaml:"b"`
		}
		require.NoError(t, yaml.Unmarshal([]byte("a: 2025-07-01\nb: \"2026-01-01\"\n"), &doc))
		assert.Equal(t, "2025-07-01", doc.A.String())
		assert.Equal(t, "2026-01-01", doc.B.String())
	})

	t.Run("yaml rejects other layouts", func(t *testing.T) {
		var doc struct {
			A Date `yaml:"a"`
		}
		assert.Error(t, yaml.Unmarshal([]byte("a: 07/01/2025\n"), &doc))
	})

	t.Run("json round trip", func(t *testing.T) {
		in := struct {
			D Date `json:"d"`
		}{D: NewDate(2025, 12, 31)}
		data, err := json.Marshal(in)
		require.NoError(t, err)
		assert.JSONEq(t, `{"d":"2025-12-31"}`, string(data))

		var out struct {
			D Date `json:"d"`
		}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.True(t, in.D.Equal(out.D))
	})
}

func TestFamilyAppliesTo(t *testing.T) {
	assert.True(t, FamilyContributions.AppliesTo(Federal))
	assert.False(t, FamilyContributions.AppliesTo(Ontario))
	assert.True(t, FamilyFederalTax.AppliesTo(Federal))
	assert.False(t, FamilyProvincialTax.AppliesTo(Federal))
	assert.True(t, FamilyProvincialTax.AppliesTo(Yukon))
	assert.True(t, FamilyHolidayPay.AppliesTo(Federal))
	assert.True(t, FamilyVacationMinimum.AppliesTo(Saskatchewan))
	assert.False(t, FamilyVacationMinimum.AppliesTo("QC"))
}

func TestParseJurisdiction(t *testing.T) {
	j, err := ParseJurisdiction(" on ")
	require.NoError(t, err)
	assert.Equal(t, Ontario, j)

	_, err = ParseJurisdiction("QC")
	assert.Error(t, err)
	assert.Len(t, Jurisdictions, 13)
}

func TestCreditFactorRepresentationsAgree(t *testing.T) {
	fraction := CreditFactor{Kind: FactorFraction, Numerator: decimal.NewFromInt(1), Denominator: decimal.NewFromInt(4)}
	dec := CreditFactor{Kind: FactorDecimal, Value: decimal.RequireFromString("0.25")}

	require.NoError(t, fraction.Validate())
	require.NoError(t, dec.Validate())
	assert.True(t, fraction.Rate().Equal(dec.Rate()))
}

func TestVacationTierEffectiveRate(t *testing.T) {
	sk := VacationTier{Weeks: 3, WeeksDenominator: 52}
	assert.Equal(t, "0.057692", sk.EffectiveRate().Round(6).String())

	flat := VacationTier{Rate: decimal.RequireFromString("0.04")}
	assert.Equal(t, "0.04", flat.EffectiveRate().String())
}

func TestVacationMinimumTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		tiers   []VacationTier
		wantErr string
	}{
		{
			name: "valid",
			tiers: []VacationTier{
				{YearsOfService: 0, Rate: decimal.RequireFromString("0.04")},
				{YearsOfService: 5, Rate: decimal.RequireFromString("0.06")},
			},
		},
		{
			name:    "must start at zero",
			tiers:   []VacationTier{{YearsOfService: 1, Rate: decimal.RequireFromString("0.04")}},
			wantErr: "start at 0",
		},
		{
			name: "decreasing rate",
			tiers: []VacationTier{
				{YearsOfService: 0, Rate: decimal.RequireFromString("0.06")},
				{YearsOfService: 5, Rate: decimal.RequireFromString("0.04")},
			},
			wantErr: "must not decrease",
		},
		{
			name:    "rate and weeks together",
			tiers:   []VacationTier{{YearsOfService: 0, Rate: decimal.RequireFromString("0.04"), Weeks: 2, WeeksDenominator: 50}},
			wantErr: "exactly one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VacationMinimumTable{Tiers: tt.tiers}.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTaxTableValidate(t *testing.T) {
	valid := TaxTable{
		Brackets: []TaxBracket{
			{Threshold: decimal.Zero, Rate: decimal.RequireFromString("0.10")},
			{Threshold: decimal.NewFromInt(50000), Rate: decimal.RequireFromString("0.20"), Constant: decimal.NewFromInt(5000)},
		},
		BasicPersonalAmount: BasicPersonalAmount{Kind: BPAFlat, Amount: decimal.NewFromInt(10000)},
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "0.1", valid.LowestRate().String())

	unordered := valid
	unordered.Brackets = []TaxBracket{valid.Brackets[0], {Threshold: decimal.Zero, Rate: decimal.RequireFromString("0.2")}}
	assert.ErrorContains(t, unordered.Validate(), "strictly increasing")

	badBPA := valid
	badBPA.BasicPersonalAmount = BasicPersonalAmount{Kind: BPAPhaseOut, Max: decimal.NewFromInt(1), Min: decimal.NewFromInt(2)}
	assert.ErrorContains(t, badBPA.Validate(), "basic_personal_amount")
}

func TestRuleDocumentEdition(t *testing.T) {
	doc := RuleDocument{
		Metadata: RuleMetadata{
			Family:        FamilyHolidayPay,
			Jurisdiction:  Saskatchewan,
			Edition:       "2025",
			EffectiveDate: MustParseDate("2025-01-01"),
			ExpiryDate:    MustParseDate("2026-01-01"),
		},
		HolidayPay: &HolidayPayFormulaSpec{
			Kind:     HolidayPercentOfWages,
			Lookback: Lookback{Unit: LookbackDays, Length: 28},
			Rate:     decimal.RequireFromString("0.05"),
		},
	}

	edition, err := doc.Edition()
	require.NoError(t, err)
	assert.Equal(t, "2025", edition.ID)
	assert.NotNil(t, edition.Holiday)
	assert.True(t, edition.Covers(MustParseDate("2025-01-01")))
	assert.True(t, edition.Covers(MustParseDate("2025-12-31")))
	assert.False(t, edition.Covers(MustParseDate("2026-01-01")))

	t.Run("payload family mismatch", func(t *testing.T) {
		bad := doc
		bad.HolidayPay = nil
		bad.VacationMinimum = &VacationMinimumTable{Tiers: []VacationTier{{Rate: decimal.RequireFromString("0.04")}}}
		_, err := bad.Edition()
		assert.ErrorContains(t, err, "holiday_pay payload is missing")
	})

	t.Run("family not published for jurisdiction", func(t *testing.T) {
		bad := doc
		bad.Metadata.Family = FamilyFederalTax
		_, err := bad.Edition()
		assert.ErrorContains(t, err, "not published")
	})

	t.Run("empty window", func(t *testing.T) {
		bad := doc
		bad.Metadata.ExpiryDate = bad.Metadata.EffectiveDate
		_, err := bad.Edition()
		assert.ErrorContains(t, err, "must be before")
	})
}

func TestRequestDefaults(t *testing.T) {
	req := CalculationRequest{Province: BritishColumbia}
	assert.Equal(t, BritishColumbia, req.StandardsJurisdiction())
	assert.Equal(t, VacationAccrue, req.Method())
	assert.Equal(t, -1, req.AgeAt(MustParseDate("2025-01-01")))

	birth := MustParseDate("1955-06-30")
	req.EmploymentStandards = Federal
	req.BirthDate = &birth
	assert.Equal(t, Federal, req.StandardsJurisdiction())
	assert.Equal(t, 69, req.AgeAt(MustParseDate("2025-06-29")))
	assert.Equal(t, 70, req.AgeAt(MustParseDate("2025-06-30")))
}
