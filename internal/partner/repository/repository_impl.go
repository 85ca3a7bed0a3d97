package repository

import (
	"context"

	partnerdomain "github.com/northlink/partnerhub/internal/partner/domain"
	"github.com/northlink/partnerhub/pkg/db/option"
	pkgrepository "github.com/northlink/partnerhub/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db    *gorm.DB
	store pkgrepository.Repository[partnerdomain.Partner]
}

func NewRepository(db *gorm.DB) partnerdomain.Repository {
	return &repository{
		db:    db,
		store: pkgrepository.ProvideStore[partnerdomain.Partner](db),
	}
}

// listSortFields are the columns callers may sort partner listings by.
var listSortFields = map[string]bool{
	"name":             true,
	"tier_code":        true,
	"lifetime_revenue": true,
	"created_at":       true,
}

func (r *repository) List(ctx context.Context, q partnerdomain.ListQuery) ([]partnerdomain.Partner, error) {
	sortExpr := option.WithQuerySortBy(q.SortBy, q.Order, listSortFields)
	if sortExpr == "" {
		sortExpr = "created_at ASC"
	}

	rows, err := r.store.Find(ctx, &partnerdomain.Partner{},
		option.WithSortBy(sortExpr),
		option.WithLimit(q.Limit),
		option.WithOffset(q.Offset),
	)
	if err != nil {
		return nil, err
	}

	partners := make([]partnerdomain.Partner, 0, len(rows))
	for _, row := range rows {
		partners = append(partners, *row)
	}
	return partners, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*partnerdomain.Partner, error) {
	return r.store.FindOne(ctx, &partnerdomain.Partner{ID: id})
}

func (r *repository) Upsert(ctx context.Context, partner *partnerdomain.Partner) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "email", "tier_code", "lifetime_revenue", "is_active", "updated_at",
			}),
		}).
		Create(partner).Error
}
