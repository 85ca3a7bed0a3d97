// Package migration brings the schema up to date at startup. Postgres runs
// versioned SQL migrations; other dialects fall back to gorm AutoMigrate,
// which is what the sqlite test databases use.
package migration

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
	"github.com/northlink/partnerhub/internal/config"
	partnerdomain "github.com/northlink/partnerhub/internal/partner/domain"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func Run(cfg config.Config, db *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")

	if cfg.DBType != "postgres" {
		log.Info("running auto migration", zap.String("dialect", cfg.DBType))
		return AutoMigrate(db)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, cfg.DBName, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	log.Info("migrations applied")
	return nil
}

// AutoMigrate creates the schema from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&commissiondomain.CommissionTier{},
		&commissiondomain.CommissionRecord{},
		&territorydomain.Territory{},
		&partnerdomain.Partner{},
	)
}

var Module = fx.Module("migration",
	fx.Invoke(Run),
)
