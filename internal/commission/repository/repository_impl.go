package repository

import (
	"context"
	"errors"

	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) commissiondomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListOrdered(ctx context.Context) ([]commissiondomain.CommissionTier, error) {
	var tiers []commissiondomain.CommissionTier
	err := r.db.WithContext(ctx).
		Model(&commissiondomain.CommissionTier{}).
		Order("minimum_revenue ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*commissiondomain.CommissionTier, error) {
	var tier commissiondomain.CommissionTier
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repository) Upsert(ctx context.Context, tier *commissiondomain.CommissionTier) error {
	if err := tier.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "minimum_revenue", "base_rate", "bonus_rate", "product_multipliers", "updated_at",
			}),
		}).
		Create(tier).Error
}
