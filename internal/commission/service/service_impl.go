package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/northlink/partnerhub/internal/clock"
	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
	"github.com/northlink/partnerhub/internal/commission/engine"
	obsmetrics "github.com/northlink/partnerhub/internal/observability/metrics"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics

	tierRepo commissiondomain.Repository
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Metrics  *obsmetrics.Metrics `optional:"true"`
	TierRepo commissiondomain.Repository
}

func NewService(p ServiceParam) commissiondomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("commission.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
		tierRepo: p.TierRepo,
	}
}

func (s *Service) Calculate(ctx context.Context, input commissiondomain.CalculationInput) (*commissiondomain.CalculationResult, error) {
	eng, err := s.loadEngine(ctx)
	if err != nil {
		return nil, err
	}

	result, err := eng.Calculate(input)
	if err != nil {
		s.metrics.RecordCommissionRejection(ctx, classifyRejection(err))
		return nil, err
	}

	result.CalculationID = ulid.Make().String()
	if err := s.persistRecord(ctx, result, input); err != nil {
		// The calculation itself is correct; a failed audit write must not
		// hide the result from the caller.
		s.log.Error("persist commission record failed",
			zap.String("calculation_id", result.CalculationID),
			zap.Error(err),
		)
	}

	s.metrics.RecordCommissionCalculation(ctx, input.PartnerTier)
	return result, nil
}

func (s *Service) CalculateBatch(ctx context.Context, inputs []commissiondomain.CalculationInput) ([]commissiondomain.CalculationResult, error) {
	eng, err := s.loadEngine(ctx)
	if err != nil {
		return nil, err
	}

	results, err := eng.CalculateBatch(inputs)
	if err != nil {
		s.metrics.RecordCommissionRejection(ctx, "batch")
		return nil, err
	}

	for i := range results {
		results[i].CalculationID = ulid.Make().String()
		if err := s.persistRecord(ctx, &results[i], inputs[i]); err != nil {
			s.log.Error("persist commission record failed",
				zap.String("calculation_id", results[i].CalculationID),
				zap.Error(err),
			)
		}
		s.metrics.RecordCommissionCalculation(ctx, inputs[i].PartnerTier)
	}
	return results, nil
}

func (s *Service) ValidateResult(ctx context.Context, prior commissiondomain.CalculationResult, input commissiondomain.CalculationInput) (bool, error) {
	eng, err := s.loadEngine(ctx)
	if err != nil {
		return false, err
	}
	return eng.ValidateResult(prior, input), nil
}

func (s *Service) EligibleTier(ctx context.Context, lifetimeRevenue float64) (*commissiondomain.CommissionTier, error) {
	eng, err := s.loadEngine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.EligibleTier(lifetimeRevenue)
}

func (s *Service) Simulate(ctx context.Context, req commissiondomain.SimulationRequest) (*commissiondomain.SimulationResult, error) {
	eng, err := s.loadEngine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Simulate(req.BaseRevenue, req.TargetTier, req.ProductMix)
}

func (s *Service) ListTiers(ctx context.Context) ([]commissiondomain.CommissionTier, error) {
	tiers, err := s.tierRepo.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		tiers = commissiondomain.DefaultTiers()
	}
	return tiers, nil
}

func (s *Service) GetTier(ctx context.Context, code string) (*commissiondomain.CommissionTier, error) {
	tier, err := s.tierRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if tier != nil {
		return tier, nil
	}
	for _, t := range commissiondomain.DefaultTiers() {
		if t.Code == code {
			return &t, nil
		}
	}
	return nil, commissiondomain.ErrUnknownTier
}

func (s *Service) UpsertTier(ctx context.Context, tier *commissiondomain.CommissionTier) error {
	if err := tier.Validate(); err != nil {
		return err
	}
	if tier.ID == 0 {
		tier.ID = s.genID.Generate()
	}
	now := s.clock.Now()
	if tier.CreatedAt.IsZero() {
		tier.CreatedAt = now
	}
	tier.UpdatedAt = now

	if err := s.tierRepo.Upsert(ctx, tier); err != nil {
		return err
	}
	s.log.Info("commission tier upserted", zap.String("code", tier.Code))
	return nil
}

func (s *Service) loadEngine(ctx context.Context) (*engine.Engine, error) {
	tiers, err := s.tierRepo.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	return engine.New(tiers, s.clock)
}

func (s *Service) persistRecord(ctx context.Context, result *commissiondomain.CalculationResult, input commissiondomain.CalculationInput) error {
	record := commissiondomain.CommissionRecord{
		ID:              s.genID.Generate(),
		CalculationID:   result.CalculationID,
		CustomerID:      result.CustomerID,
		PartnerID:       result.PartnerID,
		TierCode:        input.PartnerTier,
		BaseCommission:  result.BaseCommission,
		BonusCommission: result.BonusCommission,
		TotalCommission: result.TotalCommission,
		EffectiveRate:   result.EffectiveRate,
		Checksum:        buildChecksum(input),
		CalculatedAt:    result.CalculatedAt,
		CreatedAt:       s.clock.Now(),
	}
	record.Breakdown = datatypes.NewJSONType(result.Breakdown)
	record.AuditTrail = datatypes.NewJSONType(result.AuditTrail)

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "checksum"}},
			DoNothing: true,
		}).
		Create(&record).Error
}

// buildChecksum makes replays of the same sale idempotent in the audit table.
func buildChecksum(input commissiondomain.CalculationInput) string {
	promo := "none"
	if input.PromotionalRate != nil {
		promo = fmt.Sprintf("%.6f", *input.PromotionalRate)
	}
	territory := "none"
	if input.TerritoryBonus != nil {
		territory = fmt.Sprintf("%.6f", *input.TerritoryBonus)
	}

	payload := fmt.Sprintf("%s|%s|%s|%s|%.6f|%.6f|%t|%d|%s|%s",
		input.CustomerID,
		input.PartnerID,
		input.PartnerTier,
		input.ProductType,
		input.MonthlyRevenue,
		input.PartnerLifetimeRevenue,
		input.IsNewCustomer,
		input.ContractLength,
		promo,
		territory,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func classifyRejection(err error) string {
	var vErr *commissiondomain.ValidationError
	var eErr *commissiondomain.EligibilityError
	var cErr *commissiondomain.RateCapError
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &eErr):
		return "eligibility"
	case errors.As(err, &cErr):
		return "rate_cap"
	case errors.Is(err, commissiondomain.ErrUnknownTier), errors.Is(err, commissiondomain.ErrNoTiersConfigured):
		return "configuration"
	default:
		return "other"
	}
}
