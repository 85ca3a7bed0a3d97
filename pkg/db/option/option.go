// Package option provides composable gorm query options for repositories.
package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type sortBy struct {
	expr string
}

func (o sortBy) Apply(db *gorm.DB) *gorm.DB {
	if strings.TrimSpace(o.expr) == "" {
		return db
	}
	return db.Order(o.expr)
}

// WithSortBy orders the query by a pre-sanitized expression.
func WithSortBy(expr string) QueryOption {
	return sortBy{expr: expr}
}

// WithQuerySortBy sanitizes a caller-supplied sort field/order pair against an
// allow-list and returns an ORDER BY expression, or "" when the field is not
// allowed.
func WithQuerySortBy(field, order string, allowed map[string]bool) string {
	field = strings.ToLower(strings.TrimSpace(field))
	if field == "" || !allowed[field] {
		return ""
	}

	order = strings.ToLower(strings.TrimSpace(order))
	if order != "desc" {
		order = "asc"
	}
	return fmt.Sprintf("%s %s", field, order)
}

type limit struct {
	n int
}

func (o limit) Apply(db *gorm.DB) *gorm.DB {
	if o.n <= 0 {
		return db
	}
	return db.Limit(o.n)
}

// WithLimit caps the number of returned rows.
func WithLimit(n int) QueryOption {
	return limit{n: n}
}

type offset struct {
	n int
}

func (o offset) Apply(db *gorm.DB) *gorm.DB {
	if o.n <= 0 {
		return db
	}
	return db.Offset(o.n)
}

// WithOffset skips the first n rows.
func WithOffset(n int) QueryOption {
	return offset{n: n}
}
