package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Driver-specific text for unique constraint violations. TranslateError
// normalizes most of these to gorm.ErrDuplicatedKey, but raw-SQL paths and
// older driver versions still surface the native message.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint", // postgres 23505
	"Error 1062",                                     // mysql
	"UNIQUE constraint failed",                       // sqlite 2067
}

// IsDuplicateKeyErr reports whether err is a unique constraint violation on
// any of the supported drivers.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
