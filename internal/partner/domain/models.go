// Package domain defines partner records. Partners own territories and
// accrue lifetime revenue, which gates commission tier eligibility.
package domain

import (
	"errors"
	"time"
)

var (
	ErrPartnerNotFound    = errors.New("partner_not_found")
	ErrInvalidPartnerName = errors.New("invalid_partner_name")
	ErrInvalidRevenue     = errors.New("invalid_revenue")
)

type Partner struct {
	ID    string `gorm:"primaryKey;type:text" json:"id"`
	Name  string `gorm:"type:text;not null" json:"name"`
	Email string `gorm:"type:text" json:"email,omitempty"`

	TierCode        string  `gorm:"column:tier_code;type:text;not null;default:bronze" json:"tier_code"`
	LifetimeRevenue float64 `gorm:"column:lifetime_revenue;not null;default:0" json:"lifetime_revenue"`

	// No gorm default so a false value survives the insert.
	IsActive bool `gorm:"column:is_active;not null" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Partner) TableName() string { return "partners" }

func (p *Partner) Validate() error {
	if p.Name == "" {
		return ErrInvalidPartnerName
	}
	if p.LifetimeRevenue < 0 {
		return ErrInvalidRevenue
	}
	return nil
}
