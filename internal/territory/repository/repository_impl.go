package repository

import (
	"context"
	"errors"

	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) territorydomain.Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]territorydomain.Territory, error) {
	var territories []territorydomain.Territory
	err := r.db.WithContext(ctx).
		Order("priority DESC, id ASC").
		Find(&territories).Error
	if err != nil {
		return nil, err
	}
	return territories, nil
}

func (r *repository) ListActive(ctx context.Context) ([]territorydomain.Territory, error) {
	var territories []territorydomain.Territory
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC, id ASC").
		Find(&territories).Error
	if err != nil {
		return nil, err
	}
	return territories, nil
}

func (r *repository) ListByPartner(ctx context.Context, partnerID string) ([]territorydomain.Territory, error) {
	var territories []territorydomain.Territory
	err := r.db.WithContext(ctx).
		Where("partner_id = ? AND is_active = ?", partnerID, true).
		Order("priority DESC, id ASC").
		Find(&territories).Error
	if err != nil {
		return nil, err
	}
	return territories, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*territorydomain.Territory, error) {
	var territory territorydomain.Territory
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&territory).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &territory, nil
}

func (r *repository) Upsert(ctx context.Context, territory *territorydomain.Territory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "partner_id", "boundaries", "exclusions", "priority", "is_active", "updated_at",
			}),
		}).
		Create(territory).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&territorydomain.Territory{}).Error
}
