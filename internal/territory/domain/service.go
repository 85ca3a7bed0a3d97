package domain

import "context"

type Service interface {
	ValidateAddress(ctx context.Context, addr Address, requestingPartnerID string) (*ValidationResult, error)
	ValidateBulk(ctx context.Context, addrs []Address, requestingPartnerID string) ([]ValidationResult, error)
	ValidatePartnerAccess(ctx context.Context, partnerID, territoryID string) (bool, error)

	ListTerritories(ctx context.Context) ([]Territory, error)
	AddTerritory(ctx context.Context, territory *Territory) error
	RemoveTerritory(ctx context.Context, territoryID string) error
	PartnerTerritories(ctx context.Context, partnerID string) ([]Territory, error)

	TerritoryStats(ctx context.Context, territoryID string) (*Stats, error)
	OptimizeAssignments(ctx context.Context) ([]ConflictReport, error)
}

type Repository interface {
	List(ctx context.Context) ([]Territory, error)
	ListActive(ctx context.Context) ([]Territory, error)
	ListByPartner(ctx context.Context, partnerID string) ([]Territory, error)
	FindByID(ctx context.Context, id string) (*Territory, error)
	Upsert(ctx context.Context, territory *Territory) error
	Delete(ctx context.Context, id string) error
}
