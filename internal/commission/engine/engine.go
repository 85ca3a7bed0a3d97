// Package engine implements the deterministic partner commission calculation.
// An Engine holds only the tier schedule; every calculation allocates its own
// audit trail, so a single Engine is safe for concurrent use.
package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/northlink/partnerhub/internal/clock"
	"github.com/northlink/partnerhub/internal/commission/domain"
)

type Engine struct {
	tiers    []domain.CommissionTier
	byCode   map[string]*domain.CommissionTier
	clock    clock.Clock
	validate *validator.Validate
}

// New builds an engine over the given tier schedule. An empty schedule falls
// back to the built-in default table.
func New(tiers []domain.CommissionTier, clk clock.Clock) (*Engine, error) {
	if len(tiers) == 0 {
		tiers = domain.DefaultTiers()
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}

	ordered := make([]domain.CommissionTier, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MinimumRevenue < ordered[j].MinimumRevenue
	})

	byCode := make(map[string]*domain.CommissionTier, len(ordered))
	for i := range ordered {
		if err := ordered[i].Validate(); err != nil {
			return nil, fmt.Errorf("tier %q: %w", ordered[i].Code, err)
		}
		byCode[ordered[i].Code] = &ordered[i]
	}

	return &Engine{
		tiers:    ordered,
		byCode:   byCode,
		clock:    clk,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Calculate prices one sale and returns the result with a step-by-step audit
// trail. It fails on malformed input, an unknown tier, an ineligible partner,
// or an effective rate over the cap; no partial result is ever returned.
func (e *Engine) Calculate(in domain.CalculationInput) (*domain.CalculationResult, error) {
	trail := newTrail(e.clock)

	if err := e.validateInput(in); err != nil {
		return nil, err
	}
	trail.addf("input validated for customer %s, partner %s", in.CustomerID, in.PartnerID)

	tier, ok := e.byCode[in.PartnerTier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTier, in.PartnerTier)
	}
	trail.addf("resolved tier %s (base rate %.4f)", tier.Code, tier.BaseRate)

	if in.PartnerLifetimeRevenue < tier.MinimumRevenue {
		return nil, &domain.EligibilityError{
			TierCode:        tier.Code,
			RequiredRevenue: tier.MinimumRevenue,
			ActualRevenue:   in.PartnerLifetimeRevenue,
		}
	}
	trail.addf("eligibility confirmed: lifetime revenue %.2f >= %.2f", in.PartnerLifetimeRevenue, tier.MinimumRevenue)

	tierRate := tier.EffectiveRate()
	productMultiplier := tier.MultiplierFor(in.ProductType)
	base := in.MonthlyRevenue * tierRate * productMultiplier
	trail.addf("base commission: %.2f x %.4f x %.2f = %.2f", in.MonthlyRevenue, tierRate, productMultiplier, base)

	newCustomerBonus := 0.0
	if in.IsNewCustomer {
		newCustomerBonus = in.MonthlyRevenue * tier.BaseRate * 0.5
		trail.addf("new customer bonus: %.2f x %.4f x 0.5 = %.2f", in.MonthlyRevenue, tier.BaseRate, newCustomerBonus)
	}

	// Bracketed, not cumulative: only the highest threshold applies.
	contractBonus := 0.0
	switch {
	case in.ContractLength >= 24:
		contractBonus = base * 0.10
		trail.addf("contract length bonus (%d months >= 24): %.2f", in.ContractLength, contractBonus)
	case in.ContractLength >= 12:
		contractBonus = base * 0.05
		trail.addf("contract length bonus (%d months >= 12): %.2f", in.ContractLength, contractBonus)
	}

	territoryBonus := 0.0
	if in.TerritoryBonus != nil && *in.TerritoryBonus > 0 {
		territoryBonus = base * *in.TerritoryBonus
		trail.addf("territory bonus: %.2f x %.4f = %.2f", base, *in.TerritoryBonus, territoryBonus)
	}

	prePromoTotal := base + newCustomerBonus + contractBonus + territoryBonus

	promoRate := 1.0
	if in.PromotionalRate != nil {
		promoRate = *in.PromotionalRate
	}
	total := prePromoTotal * promoRate
	promoAdjustment := total - prePromoTotal
	if promoAdjustment != 0 {
		trail.addf("promotional adjustment (rate %.4f): %.2f", promoRate, promoAdjustment)
	}

	effectiveRate := 0.0
	if in.MonthlyRevenue > 0 {
		effectiveRate = total / in.MonthlyRevenue
	}
	if effectiveRate > domain.MaxEffectiveRate {
		return nil, &domain.RateCapError{EffectiveRate: effectiveRate, Cap: domain.MaxEffectiveRate}
	}
	trail.addf("total commission %.2f, effective rate %.4f (cap %.2f)", total, effectiveRate, domain.MaxEffectiveRate)

	return &domain.CalculationResult{
		CustomerID:      in.CustomerID,
		PartnerID:       in.PartnerID,
		Tier:            tier.Name,
		BaseCommission:  base,
		BonusCommission: total - base,
		TotalCommission: total,
		EffectiveRate:   effectiveRate,
		Breakdown: domain.Breakdown{
			BaseAmount:            base,
			TierMultiplier:        tierRate,
			ProductMultiplier:     productMultiplier,
			NewCustomerBonus:      newCustomerBonus,
			TerritoryBonus:        territoryBonus,
			ContractLengthBonus:   contractBonus,
			PromotionalAdjustment: promoAdjustment,
		},
		CalculatedAt: e.clock.Now(),
		AuditTrail:   trail.entries,
	}, nil
}

// CalculateBatch prices every input independently and collects per-index
// failures. All-or-nothing: if any input failed, no results are returned.
func (e *Engine) CalculateBatch(inputs []domain.CalculationInput) ([]domain.CalculationResult, error) {
	results := make([]domain.CalculationResult, 0, len(inputs))
	var failures []domain.BatchItemError

	for i, in := range inputs {
		result, err := e.Calculate(in)
		if err != nil {
			failures = append(failures, domain.BatchItemError{Index: i, Err: err})
			continue
		}
		results = append(results, *result)
	}

	if len(failures) > 0 {
		return nil, &domain.BatchError{Items: failures}
	}
	return results, nil
}

// ValidateResult recomputes a previously stored result from its original
// input and reports whether totals still match within an absolute tolerance
// of 0.01. It never fails: an input the current schedule rejects is a
// mismatch.
func (e *Engine) ValidateResult(prior domain.CalculationResult, in domain.CalculationInput) bool {
	recomputed, err := e.Calculate(in)
	if err != nil {
		return false
	}
	const tolerance = 0.01
	return math.Abs(recomputed.TotalCommission-prior.TotalCommission) <= tolerance &&
		math.Abs(recomputed.EffectiveRate-prior.EffectiveRate) <= tolerance
}

// EligibleTier returns the highest tier the lifetime revenue qualifies for,
// falling back to the lowest configured tier.
func (e *Engine) EligibleTier(lifetimeRevenue float64) (*domain.CommissionTier, error) {
	if len(e.tiers) == 0 {
		return nil, domain.ErrNoTiersConfigured
	}

	var eligible *domain.CommissionTier
	for i := range e.tiers {
		if lifetimeRevenue >= e.tiers[i].MinimumRevenue {
			eligible = &e.tiers[i]
		}
	}
	if eligible == nil {
		eligible = &e.tiers[0]
	}
	return eligible, nil
}

// Simulate projects commissions for a hypothetical product mix under the
// target tier without eligibility checks. Side-effect free.
func (e *Engine) Simulate(baseRevenue float64, targetTier string, productMix map[string]float64) (*domain.SimulationResult, error) {
	tier, ok := e.byCode[targetTier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTier, targetTier)
	}

	projected := make(map[string]float64, len(productMix))
	total := 0.0
	for productType, revenue := range productMix {
		commission := revenue * tier.EffectiveRate() * tier.MultiplierFor(productType)
		projected[productType] = commission
		total += commission
	}

	return &domain.SimulationResult{
		Tier:                 tier.Code,
		ProjectedCommissions: projected,
		TotalCommission:      total,
		RevenueNeeded:        math.Max(0, tier.MinimumRevenue-baseRevenue),
	}, nil
}

// Tiers returns the schedule ordered by minimum revenue ascending.
func (e *Engine) Tiers() []domain.CommissionTier {
	out := make([]domain.CommissionTier, len(e.tiers))
	copy(out, e.tiers)
	return out
}

func (e *Engine) validateInput(in domain.CalculationInput) error {
	err := e.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	vErr := &domain.ValidationError{}
	if ok := asValidationErrors(err, &fieldErrs); ok {
		for _, fe := range fieldErrs {
			vErr.Fields = append(vErr.Fields, domain.FieldError{
				Field:   snakeCase(fe.Field()),
				Code:    fe.Tag(),
				Message: fmt.Sprintf("failed %s validation", fe.Tag()),
			})
		}
		return vErr
	}

	vErr.Fields = append(vErr.Fields, domain.FieldError{Field: "input", Code: "invalid", Message: err.Error()})
	return vErr
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = fieldErrs
	return true
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type trail struct {
	clock   clock.Clock
	entries []string
}

func newTrail(clk clock.Clock) *trail {
	return &trail{clock: clk, entries: make([]string, 0, 8)}
}

func (t *trail) addf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.entries = append(t.entries, fmt.Sprintf("%s | %s", t.clock.Now().Format(time.RFC3339), msg))
}
