// Package seed installs baseline data on an empty database: the built-in
// four-tier commission schedule, plus a demo partner in development.
package seed

import (
	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
	"github.com/northlink/partnerhub/internal/config"
	partnerdomain "github.com/northlink/partnerhub/internal/partner/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Run(cfg config.Config, db *gorm.DB, genID *snowflake.Node, log *zap.Logger) error {
	log = log.Named("seed")

	var tierCount int64
	if err := db.Model(&commissiondomain.CommissionTier{}).Count(&tierCount).Error; err != nil {
		return err
	}
	if tierCount == 0 {
		tiers := commissiondomain.DefaultTiers()
		for i := range tiers {
			tiers[i].ID = genID.Generate()
		}
		if err := db.Create(&tiers).Error; err != nil {
			return err
		}
		log.Info("seeded default commission tiers", zap.Int("count", len(tiers)))
	}

	if !cfg.IsDev() {
		return nil
	}

	var partnerCount int64
	if err := db.Model(&partnerdomain.Partner{}).Count(&partnerCount).Error; err != nil {
		return err
	}
	if partnerCount == 0 {
		demo := partnerdomain.Partner{
			ID:       "partner-demo",
			Name:     "Demo Partner",
			Email:    "demo@partnerhub.local",
			TierCode: "bronze",
			IsActive: true,
		}
		if err := db.Create(&demo).Error; err != nil {
			return err
		}
		log.Info("seeded demo partner", zap.String("partner_id", demo.ID))
	}
	return nil
}

var Module = fx.Module("seed",
	fx.Invoke(Run),
)
