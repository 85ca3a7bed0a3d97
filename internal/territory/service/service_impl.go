package service

import (
	"context"

	"github.com/northlink/partnerhub/internal/clock"
	"github.com/northlink/partnerhub/internal/geocode"
	obsmetrics "github.com/northlink/partnerhub/internal/observability/metrics"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	geocoder geocode.Geocoder
	metrics  *obsmetrics.Metrics
	repo     territorydomain.Repository
}

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Geocoder geocode.Geocoder    `optional:"true"`
	Metrics  *obsmetrics.Metrics `optional:"true"`
	Repo     territorydomain.Repository
}

func NewService(p ServiceParam) territorydomain.Service {
	return &Service{
		log:      p.Log.Named("territory.service"),
		clock:    p.Clock,
		geocoder: p.Geocoder,
		metrics:  p.Metrics,
		repo:     p.Repo,
	}
}

func (s *Service) ValidateAddress(ctx context.Context, addr territorydomain.Address, requestingPartnerID string) (*territorydomain.ValidationResult, error) {
	v, err := s.loadValidator(ctx)
	if err != nil {
		return nil, err
	}
	result, err := v.ValidateAddress(ctx, addr, requestingPartnerID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTerritoryValidation(ctx, string(result.Method), result.IsValid)
	return result, nil
}

func (s *Service) ValidateBulk(ctx context.Context, addrs []territorydomain.Address, requestingPartnerID string) ([]territorydomain.ValidationResult, error) {
	v, err := s.loadValidator(ctx)
	if err != nil {
		return nil, err
	}
	results, err := v.ValidateBulk(ctx, addrs, requestingPartnerID)
	if err != nil {
		return nil, err
	}
	for i := range results {
		s.metrics.RecordTerritoryValidation(ctx, string(results[i].Method), results[i].IsValid)
	}
	return results, nil
}

// ValidatePartnerAccess answers whether the partner owns an active territory
// with the given id. Unknown territories answer false without error.
func (s *Service) ValidatePartnerAccess(ctx context.Context, partnerID, territoryID string) (bool, error) {
	territory, err := s.repo.FindByID(ctx, territoryID)
	if err != nil {
		return false, err
	}
	if territory == nil {
		return false, nil
	}
	return territory.IsActive && territory.PartnerID == partnerID, nil
}

func (s *Service) ListTerritories(ctx context.Context) ([]territorydomain.Territory, error) {
	return s.repo.List(ctx)
}

func (s *Service) AddTerritory(ctx context.Context, territory *territorydomain.Territory) error {
	if err := territory.Validate(); err != nil {
		return err
	}
	territory.UpdatedAt = s.clock.Now()
	if territory.CreatedAt.IsZero() {
		territory.CreatedAt = territory.UpdatedAt
	}
	if err := s.repo.Upsert(ctx, territory); err != nil {
		return err
	}
	s.log.Info("territory upserted",
		zap.String("territory_id", territory.ID),
		zap.String("partner_id", territory.PartnerID),
		zap.Int("priority", territory.Priority),
	)
	return nil
}

func (s *Service) RemoveTerritory(ctx context.Context, territoryID string) error {
	territory, err := s.repo.FindByID(ctx, territoryID)
	if err != nil {
		return err
	}
	if territory == nil {
		return territorydomain.ErrTerritoryNotFound
	}
	if err := s.repo.Delete(ctx, territoryID); err != nil {
		return err
	}
	s.log.Info("territory removed", zap.String("territory_id", territoryID))
	return nil
}

func (s *Service) PartnerTerritories(ctx context.Context, partnerID string) ([]territorydomain.Territory, error) {
	return s.repo.ListByPartner(ctx, partnerID)
}

func (s *Service) TerritoryStats(ctx context.Context, territoryID string) (*territorydomain.Stats, error) {
	territory, err := s.repo.FindByID(ctx, territoryID)
	if err != nil {
		return nil, err
	}
	if territory == nil {
		return nil, territorydomain.ErrTerritoryNotFound
	}

	bounds := territory.Boundaries.Data()
	return &territorydomain.Stats{
		TerritoryID:     territory.ID,
		Name:            territory.Name,
		PartnerID:       territory.PartnerID,
		ZipCodes:        len(bounds.ZipCodes),
		Cities:          len(bounds.Cities),
		Counties:        len(bounds.Counties),
		States:          len(bounds.States),
		PolygonVertices: len(bounds.Polygon),
		Priority:        territory.Priority,
		IsActive:        territory.IsActive,
	}, nil
}

func (s *Service) OptimizeAssignments(ctx context.Context) ([]territorydomain.ConflictReport, error) {
	territories, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewValidator(territories, s.geocoder).Optimize(), nil
}

func (s *Service) loadValidator(ctx context.Context) (*Validator, error) {
	territories, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return NewValidator(territories, s.geocoder), nil
}
