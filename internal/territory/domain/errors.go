package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTerritoryID   = errors.New("invalid_territory_id")
	ErrInvalidTerritoryName = errors.New("invalid_territory_name")
	ErrInvalidPartner       = errors.New("invalid_partner")
	ErrInvalidPriority      = errors.New("invalid_priority")
	ErrInvalidPolygon       = errors.New("invalid_polygon")
	ErrTerritoryNotFound    = errors.New("territory_not_found")
)

// FieldError names one offending address field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AddressError reports a malformed address. Single-address validation fails
// with it; bulk validation converts it into an invalid zero-confidence
// result.
type AddressError struct {
	Fields []FieldError `json:"fields"`
}

func (e *AddressError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid address"
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("invalid address: %s", strings.Join(names, ", "))
}
