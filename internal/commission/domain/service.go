package domain

import "context"

type Service interface {
	Calculate(ctx context.Context, input CalculationInput) (*CalculationResult, error)
	CalculateBatch(ctx context.Context, inputs []CalculationInput) ([]CalculationResult, error)
	ValidateResult(ctx context.Context, prior CalculationResult, input CalculationInput) (bool, error)
	EligibleTier(ctx context.Context, lifetimeRevenue float64) (*CommissionTier, error)
	Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error)
	ListTiers(ctx context.Context) ([]CommissionTier, error)
	GetTier(ctx context.Context, code string) (*CommissionTier, error)
	UpsertTier(ctx context.Context, tier *CommissionTier) error
}

type Repository interface {
	// ListOrdered returns all tiers ordered by minimum revenue ascending.
	ListOrdered(ctx context.Context) ([]CommissionTier, error)
	FindByCode(ctx context.Context, code string) (*CommissionTier, error)
	Upsert(ctx context.Context, tier *CommissionTier) error
}
