// Package db opens GORM connections for the supported SQL backends.
package db

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/zulandar/liveagent/internal/config"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DSN builds the driver-specific connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgresDSN(cfg, cfg.Name)
	case config.DriverSQLite:
		return sqliteDSN(cfg.Path)
	default:
		return mysqlDSN(cfg, cfg.Name)
	}
}

// mysqlDSN builds a MySQL/Dolt DSN. An empty database selects none, which is
// what CREATE DATABASE needs.
func mysqlDSN(cfg config.DatabaseConfig, database string) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = database
	mc.ParseTime = true
	return mc.FormatDSN()
}

func postgresDSN(cfg config.DatabaseConfig, database string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, database, cfg.Port, cfg.SSLMode)
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off by
// default and which the cascade on live_agent_messages depends on.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func gormConfig(cfg config.DatabaseConfig) *gorm.Config {
	mode := logger.Silent
	if cfg.LogSQL {
		mode = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(mode),
		TranslateError: true,
	}
}

func dialector(cfg config.DatabaseConfig, dsn string) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return gormmysql.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	case config.DriverSQLite:
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
}

// Open connects to the database described by cfg.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg, DSN(cfg))
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(d, gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s: %w", describe(cfg), err)
	}
	if cfg.Driver == config.DriverSQLite && isMemory(cfg.Path) {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s: %w", describe(cfg), err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return gdb, nil
}

// ConnectAdmin opens a connection to the database server without selecting
// the application database, used for CREATE/DROP DATABASE.
func ConnectAdmin(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dsn string
	switch cfg.Driver {
	case config.DriverMySQL:
		dsn = mysqlDSN(cfg, "")
	case config.DriverPostgres:
		dsn = postgresDSN(cfg, "postgres")
	default:
		return nil, fmt.Errorf("db: admin connect: driver %q has no server", cfg.Driver)
	}
	d, err := dialector(cfg, dsn)
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(d, gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("db: admin connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return gdb, nil
}

// CreateDatabase creates the named database if it doesn't already exist.
func CreateDatabase(adminDB *gorm.DB, name string) error {
	sql := "CREATE DATABASE IF NOT EXISTS ?"
	if adminDB.Dialector.Name() == "postgres" {
		// Postgres has no IF NOT EXISTS for databases.
		var n int64
		if err := adminDB.Raw("SELECT count(*) FROM pg_database WHERE datname = ?", name).Scan(&n).Error; err != nil {
			return fmt.Errorf("db: create database %s: %w", name, err)
		}
		if n > 0 {
			return nil
		}
		sql = "CREATE DATABASE ?"
	}
	if err := adminDB.Exec(sql, clause.Table{Name: name}).Error; err != nil {
		return fmt.Errorf("db: create database %s: %w", name, err)
	}
	return nil
}

// DropDatabase drops the named database if it exists.
func DropDatabase(adminDB *gorm.DB, name string) error {
	if err := adminDB.Exec("DROP DATABASE IF EXISTS ?", clause.Table{Name: name}).Error; err != nil {
		return fmt.Errorf("db: drop database %s: %w", name, err)
	}
	return nil
}

// Ping verifies the underlying connection is usable.
func Ping(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// describe names the target without leaking the password.
func describe(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite {
		return "sqlite " + cfg.Path
	}
	return fmt.Sprintf("%s %s:%d/%s", cfg.Driver, cfg.Host, cfg.Port, cfg.Name)
}
