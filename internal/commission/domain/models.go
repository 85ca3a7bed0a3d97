// Package domain contains the commission tier table, calculation inputs and
// computed results for partner commission payouts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product keys sold through the partner portals. A tier without a multiplier
// for a product falls back to 1.0.
const (
	ProductResidentialBasic   = "residential_basic"
	ProductResidentialPremium = "residential_premium"
	ProductBusinessBasic      = "business_basic"
	ProductBusinessPro        = "business_pro"
	ProductEnterpriseFiber    = "enterprise_fiber"
)

// MaxEffectiveRate caps the commission payout at 50% of monthly revenue. Any
// calculation compounding past it is rejected, whatever the tier table says.
const MaxEffectiveRate = 0.5

// CommissionTier is one bracket of the partner commission schedule.
// Code is a stable engine-facing identifier; Name is UI-facing.
type CommissionTier struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"-"`
	Code string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name string       `gorm:"type:text;not null" json:"name"`

	MinimumRevenue float64  `gorm:"column:minimum_revenue;not null" json:"minimum_revenue"`
	BaseRate       float64  `gorm:"column:base_rate;not null" json:"base_rate"`
	BonusRate      *float64 `gorm:"column:bonus_rate" json:"bonus_rate,omitempty"`

	ProductMultipliers datatypes.JSONType[map[string]float64] `gorm:"column:product_multipliers" json:"product_multipliers"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CommissionTier) TableName() string { return "commission_tiers" }

func (t *CommissionTier) Validate() error {
	if t.Code == "" {
		return ErrInvalidTierCode
	}
	if t.MinimumRevenue < 0 {
		return ErrInvalidTierRevenue
	}
	if t.BaseRate < 0 || t.BaseRate > 1 {
		return ErrInvalidTierRate
	}
	if t.BonusRate != nil && (*t.BonusRate < 0 || *t.BonusRate > 1) {
		return ErrInvalidTierRate
	}
	for _, multiplier := range t.ProductMultipliers.Data() {
		if multiplier < 0 {
			return ErrInvalidTierMultiplier
		}
	}
	return nil
}

// EffectiveRate is the tier's base rate plus its optional bonus rate.
func (t *CommissionTier) EffectiveRate() float64 {
	rate := t.BaseRate
	if t.BonusRate != nil {
		rate += *t.BonusRate
	}
	return rate
}

// MultiplierFor returns the product multiplier, defaulting to 1.
func (t *CommissionTier) MultiplierFor(productType string) float64 {
	if multiplier, ok := t.ProductMultipliers.Data()[productType]; ok {
		return multiplier
	}
	return 1
}

// DefaultTiers is the built-in four-bracket schedule used until an operator
// configures a custom table.
func DefaultTiers() []CommissionTier {
	bronzeBonus := 0.0
	silverBonus := 0.01
	goldBonus := 0.015
	platinumBonus := 0.02

	return []CommissionTier{
		{
			Code:           "bronze",
			Name:           "Bronze",
			MinimumRevenue: 0,
			BaseRate:       0.05,
			BonusRate:      &bronzeBonus,
			ProductMultipliers: datatypes.NewJSONType(map[string]float64{
				ProductResidentialBasic:   1.0,
				ProductResidentialPremium: 1.2,
				ProductBusinessBasic:      1.3,
				ProductBusinessPro:        1.5,
				ProductEnterpriseFiber:    1.6,
			}),
		},
		{
			Code:           "silver",
			Name:           "Silver",
			MinimumRevenue: 50000,
			BaseRate:       0.07,
			BonusRate:      &silverBonus,
			ProductMultipliers: datatypes.NewJSONType(map[string]float64{
				ProductResidentialBasic:   1.0,
				ProductResidentialPremium: 1.25,
				ProductBusinessBasic:      1.4,
				ProductBusinessPro:        1.6,
				ProductEnterpriseFiber:    1.7,
			}),
		},
		{
			Code:           "gold",
			Name:           "Gold",
			MinimumRevenue: 150000,
			BaseRate:       0.09,
			BonusRate:      &goldBonus,
			ProductMultipliers: datatypes.NewJSONType(map[string]float64{
				ProductResidentialBasic:   1.0,
				ProductResidentialPremium: 1.3,
				ProductBusinessBasic:      1.5,
				ProductBusinessPro:        1.7,
				ProductEnterpriseFiber:    1.8,
			}),
		},
		{
			Code:           "platinum",
			Name:           "Platinum",
			MinimumRevenue: 500000,
			BaseRate:       0.12,
			BonusRate:      &platinumBonus,
			ProductMultipliers: datatypes.NewJSONType(map[string]float64{
				ProductResidentialBasic:   1.0,
				ProductResidentialPremium: 1.35,
				ProductBusinessBasic:      1.6,
				ProductBusinessPro:        1.8,
				ProductEnterpriseFiber:    2.0,
			}),
		},
	}
}

// CalculationInput is one sale to price. Not persisted.
type CalculationInput struct {
	CustomerID             string   `json:"customer_id" validate:"required"`
	PartnerID              string   `json:"partner_id" validate:"required"`
	PartnerTier            string   `json:"partner_tier" validate:"required"`
	ProductType            string   `json:"product_type" validate:"required,oneof=residential_basic residential_premium business_basic business_pro enterprise_fiber"`
	MonthlyRevenue         float64  `json:"monthly_revenue" validate:"gte=0"`
	PartnerLifetimeRevenue float64  `json:"partner_lifetime_revenue" validate:"gte=0"`
	IsNewCustomer          bool     `json:"is_new_customer"`
	ContractLength         int      `json:"contract_length" validate:"required,gte=1,lte=36"`
	PromotionalRate        *float64 `json:"promotional_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	TerritoryBonus         *float64 `json:"territory_bonus,omitempty" validate:"omitempty,gte=0,lte=0.05"`
}

// Breakdown itemizes every contribution to the total.
type Breakdown struct {
	BaseAmount            float64 `json:"base_amount"`
	TierMultiplier        float64 `json:"tier_multiplier"`
	ProductMultiplier     float64 `json:"product_multiplier"`
	NewCustomerBonus      float64 `json:"new_customer_bonus"`
	TerritoryBonus        float64 `json:"territory_bonus"`
	ContractLengthBonus   float64 `json:"contract_length_bonus"`
	PromotionalAdjustment float64 `json:"promotional_adjustment"`
}

// CalculationResult is the computed commission with its audit trail. The
// trail is allocated per call; results never share state.
type CalculationResult struct {
	CalculationID string `json:"calculation_id,omitempty"`
	CustomerID    string `json:"customer_id"`
	PartnerID     string `json:"partner_id"`
	Tier          string `json:"tier"`

	BaseCommission  float64 `json:"base_commission"`
	BonusCommission float64 `json:"bonus_commission"`
	TotalCommission float64 `json:"total_commission"`
	EffectiveRate   float64 `json:"effective_rate"`

	Breakdown    Breakdown `json:"breakdown"`
	CalculatedAt time.Time `json:"calculated_at"`
	AuditTrail   []string  `json:"audit_trail"`
}

// CommissionRecord is the persisted copy of a successful calculation,
// idempotent on checksum so replays never double-book.
type CommissionRecord struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	CalculationID string       `gorm:"column:calculation_id;type:text;not null"`
	CustomerID    string       `gorm:"column:customer_id;type:text;not null;index"`
	PartnerID     string       `gorm:"column:partner_id;type:text;not null;index"`
	TierCode      string       `gorm:"column:tier_code;type:text;not null"`

	BaseCommission  float64 `gorm:"column:base_commission;not null"`
	BonusCommission float64 `gorm:"column:bonus_commission;not null"`
	TotalCommission float64 `gorm:"column:total_commission;not null"`
	EffectiveRate   float64 `gorm:"column:effective_rate;not null"`

	Breakdown  datatypes.JSONType[Breakdown] `gorm:"column:breakdown"`
	AuditTrail datatypes.JSONType[[]string]  `gorm:"column:audit_trail"`

	Checksum     string    `gorm:"type:text;not null;uniqueIndex"`
	CalculatedAt time.Time `gorm:"column:calculated_at;not null"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CommissionRecord) TableName() string { return "commission_records" }

// SimulationRequest is a what-if projection for a partner considering a tier.
type SimulationRequest struct {
	BaseRevenue float64            `json:"base_revenue" validate:"gte=0"`
	TargetTier  string             `json:"target_tier" validate:"required"`
	ProductMix  map[string]float64 `json:"product_mix" validate:"required,min=1"`
}

// SimulationResult reports projected commissions per product under the target
// tier and how much additional lifetime revenue is needed to reach it.
type SimulationResult struct {
	Tier                 string             `json:"tier"`
	ProjectedCommissions map[string]float64 `json:"projected_commissions"`
	TotalCommission      float64            `json:"total_commission"`
	RevenueNeeded        float64            `json:"revenue_needed"`
}
