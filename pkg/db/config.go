package db

import "time"

// Options selects the SQL driver and shapes the connection pool. Kept free of
// the application config type so the package works standalone in tests.
type Options struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}
