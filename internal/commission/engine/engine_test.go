package engine

import (
	"testing"
	"time"

	"github.com/northlink/partnerhub/internal/clock"
	"github.com/northlink/partnerhub/internal/commission/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(nil, clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	return eng
}

func baseInput() domain.CalculationInput {
	return domain.CalculationInput{
		CustomerID:             "cust-001",
		PartnerID:              "partner-001",
		PartnerTier:            "bronze",
		ProductType:            domain.ProductResidentialBasic,
		MonthlyRevenue:         1000,
		PartnerLifetimeRevenue: 10000,
		ContractLength:         6,
	}
}

func TestCalculateBaseCommission(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Calculate(baseInput())
	require.NoError(t, err)

	// bronze: (0.05 + 0.0) rate, residential_basic multiplier 1.0
	assert.InDelta(t, 50.0, result.BaseCommission, 0.001)
	assert.InDelta(t, 50.0, result.TotalCommission, 0.001)
	assert.InDelta(t, 0.05, result.EffectiveRate, 0.0001)
	assert.Equal(t, "Bronze", result.Tier)
	assert.NotEmpty(t, result.AuditTrail)
}

func TestCalculateSilverBusinessPro(t *testing.T) {
	eng := newTestEngine(t)

	in := baseInput()
	in.PartnerTier = "silver"
	in.ProductType = domain.ProductBusinessPro
	in.PartnerLifetimeRevenue = 75000
	in.IsNewCustomer = true
	in.ContractLength = 24

	result, err := eng.Calculate(in)
	require.NoError(t, err)

	// base 1000 x 0.08 x 1.6 = 128, new customer 1000 x 0.07 x 0.5 = 35,
	// contract 128 x 0.10 = 12.8
	assert.InDelta(t, 128.0, result.BaseCommission, 0.001)
	assert.InDelta(t, 35.0, result.Breakdown.NewCustomerBonus, 0.001)
	assert.InDelta(t, 12.8, result.Breakdown.ContractLengthBonus, 0.001)
	assert.InDelta(t, 175.8, result.TotalCommission, 0.001)
	assert.InDelta(t, 0.1758, result.EffectiveRate, 0.0001)
}

func TestCalculateNewCustomerBonusUsesBaseRateOnly(t *testing.T) {
	eng := newTestEngine(t)

	in := baseInput()
	in.PartnerTier = "silver"
	in.PartnerLifetimeRevenue = 60000
	in.IsNewCustomer = true

	result, err := eng.Calculate(in)
	require.NoError(t, err)

	// bonus excludes the tier bonus rate and the product multiplier
	assert.InDelta(t, 1000*0.07*0.5, result.Breakdown.NewCustomerBonus, 0.001)
}

func TestContractLengthBracketsAreExclusive(t *testing.T) {
	eng := newTestEngine(t)

	cases := []struct {
		name   string
		months int
		want   float64
	}{
		{"below both brackets", 11, 0},
		{"twelve months", 12, 50 * 0.05},
		{"twenty three months", 23, 50 * 0.05},
		{"twenty four months", 24, 50 * 0.10},
		{"thirty six months", 36, 50 * 0.10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			in.ContractLength = tc.months

			result, err := eng.Calculate(in)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, result.Breakdown.ContractLengthBonus, 0.001)
		})
	}
}

func TestTerritoryBonusScalesBase(t *testing.T) {
	eng := newTestEngine(t)

	bonus := 0.05
	in := baseInput()
	in.TerritoryBonus = &bonus

	result, err := eng.Calculate(in)
	require.NoError(t, err)
	assert.InDelta(t, 50*0.05, result.Breakdown.TerritoryBonus, 0.001)
	assert.InDelta(t, 52.5, result.TotalCommission, 0.001)
}

func TestPromotionalRateMultipliesTotalAndRecordsDelta(t *testing.T) {
	eng := newTestEngine(t)

	promo := 0.5
	in := baseInput()
	in.IsNewCustomer = true
	in.PromotionalRate = &promo

	result, err := eng.Calculate(in)
	require.NoError(t, err)

	// pre-promo: 50 base + 25 new customer = 75; promo halves it
	assert.InDelta(t, 37.5, result.TotalCommission, 0.001)
	assert.InDelta(t, -37.5, result.Breakdown.PromotionalAdjustment, 0.001)
	assert.InDelta(t, result.TotalCommission-result.BaseCommission, result.BonusCommission, 0.001)
}

func TestEffectiveRateCapCheckedAfterPromo(t *testing.T) {
	// A schedule that compounds to 0.6 effective. Without a promotional rate
	// the cap rejects it; a 0.8 promo brings it back under the cap, which
	// proves the check runs after the promotional multiplier.
	zero := 0.0
	tiers := []domain.CommissionTier{{
		Code:           "aggressive",
		Name:           "Aggressive",
		MinimumRevenue: 0,
		BaseRate:       0.3,
		BonusRate:      &zero,
		ProductMultipliers: datatypes.NewJSONType(map[string]float64{
			domain.ProductEnterpriseFiber: 2.0,
		}),
	}}
	eng, err := New(tiers, clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	in := baseInput()
	in.PartnerTier = "aggressive"
	in.ProductType = domain.ProductEnterpriseFiber
	in.ContractLength = 6

	_, err = eng.Calculate(in)
	var capErr *domain.RateCapError
	require.ErrorAs(t, err, &capErr)
	assert.InDelta(t, 0.6, capErr.EffectiveRate, 0.0001)
	assert.Equal(t, domain.MaxEffectiveRate, capErr.Cap)

	promo := 0.8
	in.PromotionalRate = &promo
	result, err := eng.Calculate(in)
	require.NoError(t, err)
	assert.InDelta(t, 0.48, result.EffectiveRate, 0.0001)
}

func TestZeroRevenueHasZeroEffectiveRate(t *testing.T) {
	eng := newTestEngine(t)

	in := baseInput()
	in.MonthlyRevenue = 0

	result, err := eng.Calculate(in)
	require.NoError(t, err)
	assert.Zero(t, result.TotalCommission)
	assert.Zero(t, result.EffectiveRate)
}

func TestEligibilityHardStop(t *testing.T) {
	eng := newTestEngine(t)

	in := baseInput()
	in.PartnerTier = "silver"
	in.PartnerLifetimeRevenue = 30000

	_, err := eng.Calculate(in)
	var eligErr *domain.EligibilityError
	require.ErrorAs(t, err, &eligErr)
	assert.Equal(t, "silver", eligErr.TierCode)
	assert.Equal(t, 50000.0, eligErr.RequiredRevenue)
	assert.Equal(t, 30000.0, eligErr.ActualRevenue)
}

func TestUnknownTier(t *testing.T) {
	eng := newTestEngine(t)

	in := baseInput()
	in.PartnerTier = "diamond"

	_, err := eng.Calculate(in)
	assert.ErrorIs(t, err, domain.ErrUnknownTier)
}

func TestInputValidation(t *testing.T) {
	eng := newTestEngine(t)

	in := baseInput()
	in.ContractLength = 48
	in.CustomerID = ""

	_, err := eng.Calculate(in)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	fields := make(map[string]bool, len(vErr.Fields))
	for _, f := range vErr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["customer_id"])
	assert.True(t, fields["contract_length"])
}

func TestCalculateBatchAllOrNothing(t *testing.T) {
	eng := newTestEngine(t)

	good := baseInput()
	badTier := baseInput()
	badTier.PartnerTier = "diamond"
	ineligible := baseInput()
	ineligible.PartnerTier = "gold"
	ineligible.PartnerLifetimeRevenue = 1000

	results, err := eng.CalculateBatch([]domain.CalculationInput{good, badTier, ineligible})
	require.Nil(t, results)

	var batchErr *domain.BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Items, 2)
	assert.Equal(t, 1, batchErr.Items[0].Index)
	assert.Equal(t, 2, batchErr.Items[1].Index)
	assert.ErrorIs(t, batchErr.Items[0].Err, domain.ErrUnknownTier)
}

func TestCalculateBatchAllValid(t *testing.T) {
	eng := newTestEngine(t)

	results, err := eng.CalculateBatch([]domain.CalculationInput{baseInput(), baseInput()})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, results[0].TotalCommission, results[1].TotalCommission, 0.001)
}

func TestValidateResultTolerance(t *testing.T) {
	eng := newTestEngine(t)

	in := baseInput()
	result, err := eng.Calculate(in)
	require.NoError(t, err)

	assert.True(t, eng.ValidateResult(*result, in))

	drifted := *result
	drifted.TotalCommission += 0.009
	assert.True(t, eng.ValidateResult(drifted, in))

	drifted.TotalCommission = result.TotalCommission + 0.02
	assert.False(t, eng.ValidateResult(drifted, in))

	// input the current schedule rejects is a mismatch, not an error
	in.PartnerTier = "diamond"
	assert.False(t, eng.ValidateResult(*result, in))
}

func TestEligibleTier(t *testing.T) {
	eng := newTestEngine(t)

	cases := []struct {
		revenue float64
		want    string
	}{
		{0, "bronze"},
		{49999, "bronze"},
		{50000, "silver"},
		{150000, "gold"},
		{500000, "platinum"},
		{2000000, "platinum"},
	}
	for _, tc := range cases {
		tier, err := eng.EligibleTier(tc.revenue)
		require.NoError(t, err)
		assert.Equal(t, tc.want, tier.Code, "revenue %.0f", tc.revenue)
	}
}

func TestSimulateSkipsEligibility(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Simulate(10000, "platinum", map[string]float64{
		domain.ProductResidentialBasic: 1000,
		domain.ProductEnterpriseFiber:  2000,
	})
	require.NoError(t, err)

	assert.Equal(t, "platinum", result.Tier)
	assert.InDelta(t, 1000*0.14*1.0, result.ProjectedCommissions[domain.ProductResidentialBasic], 0.001)
	assert.InDelta(t, 2000*0.14*2.0, result.ProjectedCommissions[domain.ProductEnterpriseFiber], 0.001)
	assert.InDelta(t, 490000, result.RevenueNeeded, 0.001)
}

func TestSimulateUnknownTier(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Simulate(0, "diamond", map[string]float64{domain.ProductResidentialBasic: 100})
	assert.ErrorIs(t, err, domain.ErrUnknownTier)
}

func TestAuditTrailIsPerCall(t *testing.T) {
	eng := newTestEngine(t)

	first, err := eng.Calculate(baseInput())
	require.NoError(t, err)
	second, err := eng.Calculate(baseInput())
	require.NoError(t, err)

	require.NotEmpty(t, first.AuditTrail)
	first.AuditTrail[0] = "mutated"
	assert.NotEqual(t, first.AuditTrail[0], second.AuditTrail[0])
}
