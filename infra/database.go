package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/paddock/infra/migrations"
	infrarepo "github.com/amirasaad/paddock/infra/repository"
	"github.com/amirasaad/paddock/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// NewDBConnection opens a GORM connection for the configured driver and
// brings the schema up to date.
func NewDBConnection(cnf *config.DB, appEnv string, log *slog.Logger) (*gorm.DB, error) {
	if cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	driver := strings.ToLower(cnf.Driver)
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(cnf.Url)
	case DriverSQLite:
		dialector = sqlite.Open(cnf.Url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cnf.Driver)
	}

	connection, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cnf.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cnf.ConnMaxLifetime)

	if !cnf.AutoMigrate {
		return connection, nil
	}
	if driver == DriverPostgres {
		err = migrations.Up(sqlDB, log)
	} else {
		err = connection.AutoMigrate(infrarepo.Models()...)
	}
	if err != nil {
		return nil, fmt.Errorf("migrate %s schema: %w", driver, err)
	}
	return connection, nil
}
