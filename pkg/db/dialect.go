package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func (o Options) dialector() (gorm.Dialector, error) {
	switch o.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			o.Host, o.User, o.Password, o.Name, o.Port, o.SSLMode)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			o.User, o.Password, o.Host, o.Port, o.Name)
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(o.Name), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}
