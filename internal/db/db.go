// Package db opens the gorm handle the repository runs on. Postgres schemas are
// managed by goose migrations embedded in the binary; sqlite databases, used in
// development and tests, are auto-migrated from the domain models.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrUnknownDriver = errors.New("unknown database driver")

type Options struct {
	Driver string
	DSN    string
	// AutoMigrate applies pending migrations on open.
	AutoMigrate bool
	Log         *zap.Logger
}

// Open connects, pings and optionally migrates the database.
func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         newLogger(opts.Log),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}

	switch opts.Driver {
	case DriverPostgres:
		sqlDB, err := sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if opts.AutoMigrate {
			if err := MigrateSQL(ctx, sqlDB); err != nil {
				_ = sqlDB.Close()
				return nil, err
			}
		}
		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("gorm postgres: %w", err)
		}
		return gdb, nil

	case DriverSQLite:
		gdb, err := gorm.Open(sqlite.Open(opts.DSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// One writer; sqlite locks the whole file.
		sqlDB.SetMaxOpenConns(1)
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		if opts.AutoMigrate {
			if err := gdb.WithContext(ctx).AutoMigrate(domain.All()...); err != nil {
				return nil, fmt.Errorf("auto-migrate sqlite: %w", err)
			}
		}
		return gdb, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
}

// MigrateSQL runs the embedded postgres migrations on a raw connection.
func MigrateSQL(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Migrate brings an open database up to date, whatever its driver.
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	if gdb.Dialector.Name() == DriverSQLite {
		return gdb.WithContext(ctx).AutoMigrate(domain.All()...)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return MigrateSQL(ctx, sqlDB)
}

// Version reports the applied goose version of a postgres database.
func Version(sqlDB *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(sqlDB)
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newLogger(log *zap.Logger) gormlogger.Interface {
	if log == nil {
		return gormlogger.Discard
	}
	return &zapLogger{log: log.Named("gorm"), slow: 200 * time.Millisecond}
}
