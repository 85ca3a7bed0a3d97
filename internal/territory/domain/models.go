// Package domain contains territory definitions and the address validation
// result types for partner territory assignment.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Match confidence by method. Confidence is a property of how the match was
// made, not an independently derived score.
const (
	ConfidenceZipCode     = 0.95
	ConfidenceCoordinates = 0.90
	ConfidenceCity        = 0.80
	ConfidenceState       = 0.40

	// LowConfidenceThreshold triggers a manual-review warning.
	LowConfidenceThreshold = 0.8
)

type MatchMethod string

const (
	MethodZipCode     MatchMethod = "zipcode"
	MethodCity        MatchMethod = "city"
	MethodCounty      MatchMethod = "county"
	MethodState       MatchMethod = "state"
	MethodCoordinates MatchMethod = "coordinates"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Boundaries describes where a territory applies. All dimensions are
// optional; empty dimensions never match.
type Boundaries struct {
	ZipCodes []string      `json:"zip_codes,omitempty"`
	Cities   []string      `json:"cities,omitempty"`
	Counties []string      `json:"counties,omitempty"`
	States   []string      `json:"states,omitempty"`
	Polygon  []Coordinates `json:"polygon,omitempty"`
}

// Exclusions carve addresses out of a territory even when its boundaries
// match.
type Exclusions struct {
	ZipCodes        []string `json:"zip_codes,omitempty"`
	AddressContains []string `json:"address_contains,omitempty"`
}

// Territory is a geographic exclusivity region owned by one partner.
type Territory struct {
	ID        string `gorm:"primaryKey;type:text" json:"id"`
	Name      string `gorm:"type:text;not null" json:"name"`
	PartnerID string `gorm:"column:partner_id;type:text;not null;index" json:"partner_id"`

	Boundaries datatypes.JSONType[Boundaries] `gorm:"column:boundaries" json:"boundaries"`
	Exclusions datatypes.JSONType[Exclusions] `gorm:"column:exclusions" json:"exclusions"`

	Priority int `gorm:"not null;default:1" json:"priority"`
	// No gorm default: a default tag makes gorm omit the zero value on
	// insert, which would silently re-activate a territory created inactive.
	IsActive bool `gorm:"column:is_active;not null" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Territory) TableName() string { return "territories" }

func (t *Territory) Validate() error {
	if t.ID == "" {
		return ErrInvalidTerritoryID
	}
	if t.Name == "" {
		return ErrInvalidTerritoryName
	}
	if t.PartnerID == "" {
		return ErrInvalidPartner
	}
	if t.Priority < 1 || t.Priority > 10 {
		return ErrInvalidPriority
	}
	if polygon := t.Boundaries.Data().Polygon; len(polygon) > 0 && len(polygon) < 3 {
		return ErrInvalidPolygon
	}
	return nil
}

// Address is a validation input. Not persisted.
type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required,len=2,alpha"`
	ZipCode string `json:"zip_code" validate:"required"`
	Country string `json:"country,omitempty" validate:"omitempty,len=2,alpha"`
}

// ConflictingTerritory is a lower-ranked match excluded by priority.
type ConflictingTerritory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PartnerID string `json:"partner_id"`
	Priority  int    `json:"priority"`
}

// ValidationResult reports which territory an address was assigned to, how,
// and with what confidence.
type ValidationResult struct {
	IsValid                bool                   `json:"is_valid"`
	AssignedPartnerID      string                 `json:"assigned_partner_id,omitempty"`
	TerritoryID            string                 `json:"territory_id,omitempty"`
	TerritoryName          string                 `json:"territory_name,omitempty"`
	ConflictingTerritories []ConflictingTerritory `json:"conflicting_territories,omitempty"`
	Method                 MatchMethod            `json:"method"`
	Confidence             float64                `json:"confidence"`
	Warnings               []string               `json:"warnings,omitempty"`
}

// Stats summarizes how a territory is configured.
type Stats struct {
	TerritoryID     string `json:"territory_id"`
	Name            string `json:"name"`
	PartnerID       string `json:"partner_id"`
	ZipCodes        int    `json:"zip_codes"`
	Cities          int    `json:"cities"`
	Counties        int    `json:"counties"`
	States          int    `json:"states"`
	PolygonVertices int    `json:"polygon_vertices"`
	Priority        int    `json:"priority"`
	IsActive        bool   `json:"is_active"`
}

// ConflictReport describes boundary overlap between one territory and the
// rest of the set. Diagnostic only, never a mutation.
type ConflictReport struct {
	TerritoryID string   `json:"territory_id"`
	Name        string   `json:"name"`
	Conflicts   []string `json:"conflicts,omitempty"`
	Score       float64  `json:"score"`
}
