package domain

import (
	"context"

	commissiondomain "github.com/northlink/partnerhub/internal/commission/domain"
)

// ListQuery holds the caller-controlled portion of a partner listing.
// Zero values mean "no limit, default ordering".
type ListQuery struct {
	SortBy string
	Order  string
	Limit  int
	Offset int
}

type Service interface {
	Create(ctx context.Context, partner *Partner) error
	Get(ctx context.Context, id string) (*Partner, error)
	List(ctx context.Context, q ListQuery) ([]Partner, error)

	// RecordRevenue adds to the partner's lifetime revenue and re-resolves
	// its tier against the current tier table.
	RecordRevenue(ctx context.Context, id string, amount float64) (*Partner, error)

	// ResolveTier returns the highest tier the partner currently qualifies
	// for without mutating the record.
	ResolveTier(ctx context.Context, id string) (*commissiondomain.CommissionTier, error)
}

type Repository interface {
	List(ctx context.Context, q ListQuery) ([]Partner, error)
	FindByID(ctx context.Context, id string) (*Partner, error)
	Upsert(ctx context.Context, partner *Partner) error
}
