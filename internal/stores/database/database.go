package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethanbaker/sourcing/pkg/utils"
	"github.com/glebarez/sqlite"
	mysqlconfig "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported values of DATABASE_DRIVER
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to a database with the given driver and DSN
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer
	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// OpenSQLite opens a file backed SQLite database with foreign keys and a busy timeout
func OpenSQLite(path string) (*gorm.DB, error) {
	return Open(DriverSQLite, path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
}

// OpenSQLiteMemory opens a named in-memory SQLite database. Every connection of the
// returned pool sees the same data, which is dropped once the pool is closed.
func OpenSQLiteMemory(name string) (*gorm.DB, error) {
	return Open(DriverSQLite, "file:"+name+"?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
}

// FromConfig opens the database described by the config. It returns nil when
// no database is configured so callers can fall back to OpenSQLiteMemory.
func FromConfig(cfg *utils.Config) (*gorm.DB, error) {
	driver := strings.ToLower(cfg.Get("DATABASE_DRIVER"))

	// MySQL stays the default when its database name is set
	if driver == "" && cfg.Get("MYSQL_DATABASE") != "" {
		driver = DriverMySQL
	}

	switch driver {
	case "":
		return nil, nil

	case DriverMySQL:
		dbConfig := mysqlconfig.Config{
			User:      cfg.Get("MYSQL_USER"),
			Passwd:    cfg.Get("MYSQL_ROOT_PASSWORD"),
			Net:       "tcp",
			Addr:      fmt.Sprintf("%s:%s", cfg.GetWithDefault("MYSQL_HOST", "localhost"), cfg.GetWithDefault("MYSQL_PORT", "3306")),
			DBName:    cfg.Get("MYSQL_DATABASE"),
			ParseTime: true,
			Loc:       time.UTC,
		}
		return Open(DriverMySQL, dbConfig.FormatDSN())

	case DriverPostgres:
		dsn := cfg.Get("POSTGRES_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("POSTGRES_DSN must be set for the postgres driver")
		}
		return Open(DriverPostgres, dsn)

	case DriverSQLite:
		path := cfg.GetWithDefault("SQLITE_PATH", "sourcing.db")
		log.Printf("[DATABASE]: Using SQLite database at %s", path)
		return OpenSQLite(path)

	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", driver)
	}
}

/** Transactions carried by context */

type txKey struct{}

// WithTx returns a context carrying tx
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// InTx reports whether ctx carries a transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// Conn returns the transaction carried by ctx, or db bound to ctx
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// Transaction runs fn in a transaction. When ctx already carries one, fn joins it.
func Transaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}
