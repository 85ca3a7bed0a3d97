package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/northlink/partnerhub/internal/clock"
	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
	partnerdomain "github.com/northlink/partnerhub/internal/partner/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       partnerdomain.Repository
	commission commissiondomain.Service
}

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       partnerdomain.Repository
	Commission commissiondomain.Service
}

func NewService(p ServiceParam) partnerdomain.Service {
	return &Service{
		log:        p.Log.Named("partner.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		commission: p.Commission,
	}
}

func (s *Service) Create(ctx context.Context, partner *partnerdomain.Partner) error {
	if err := partner.Validate(); err != nil {
		return err
	}
	if partner.ID == "" {
		partner.ID = s.genID.Generate().String()
	}
	now := s.clock.Now()
	if partner.CreatedAt.IsZero() {
		partner.CreatedAt = now
	}
	partner.UpdatedAt = now

	if partner.TierCode == "" {
		tier, err := s.commission.EligibleTier(ctx, partner.LifetimeRevenue)
		if err != nil {
			return err
		}
		partner.TierCode = tier.Code
	}

	if err := s.repo.Upsert(ctx, partner); err != nil {
		return err
	}
	s.log.Info("partner upserted",
		zap.String("partner_id", partner.ID),
		zap.String("tier_code", partner.TierCode),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*partnerdomain.Partner, error) {
	partner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, partnerdomain.ErrPartnerNotFound
	}
	return partner, nil
}

func (s *Service) List(ctx context.Context, q partnerdomain.ListQuery) ([]partnerdomain.Partner, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) RecordRevenue(ctx context.Context, id string, amount float64) (*partnerdomain.Partner, error) {
	if amount < 0 {
		return nil, partnerdomain.ErrInvalidRevenue
	}
	partner, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	partner.LifetimeRevenue += amount
	tier, err := s.commission.EligibleTier(ctx, partner.LifetimeRevenue)
	if err != nil {
		return nil, err
	}
	if tier.Code != partner.TierCode {
		s.log.Info("partner tier changed",
			zap.String("partner_id", partner.ID),
			zap.String("from", partner.TierCode),
			zap.String("to", tier.Code),
		)
		partner.TierCode = tier.Code
	}
	partner.UpdatedAt = s.clock.Now()

	if err := s.repo.Upsert(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *Service) ResolveTier(ctx context.Context, id string) (*commissiondomain.CommissionTier, error) {
	partner, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.commission.EligibleTier(ctx, partner.LifetimeRevenue)
}
