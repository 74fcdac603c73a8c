// Package postgres provides the relational store of the gate: connection
// management through gorm and the profile, pantry, history and plan
// repositories. SQLite is accepted for single-node runs and tests.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// DBConnection owns the gorm handle and its pool.
type DBConnection struct {
	db     *gorm.DB
	config *config.DatabaseConfig
	logger logger.Logger
}

// NewDBConnection opens the configured database, applies pool limits and
// verifies connectivity. Tables are migrated when AutoMigrate is set.
func NewDBConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*DBConnection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil database config", errors.ErrDatabaseConnection)
	}
	log = log.WithComponent("database")

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	log.Info(ctx, "Opening database",
		logger.String("driver", cfg.Driver),
		logger.String("host", cfg.Host),
		logger.String("database", cfg.Database),
		logger.Int("max_open_conns", cfg.MaxOpenConns),
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Error(ctx, "Failed to open database", err)
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseConnection, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseConnection, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	conn := &DBConnection{db: db, config: cfg, logger: log}
	if err := conn.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		log.Info(ctx, "Database schema migrated")
	}
	return conn, nil
}

// Migrate creates or updates the tables of every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.UserProfile{},
		&models.PantryItem{},
		&models.HistoryEntry{},
		&models.Plan{},
	); err != nil {
		return fmt.Errorf("%w: migrate: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}

// DB returns the gorm handle used by the repositories.
func (c *DBConnection) DB() *gorm.DB {
	return c.db
}

// Ping verifies connectivity and warns on high latency.
func (c *DBConnection) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrDatabaseConnection, err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := sqlDB.PingContext(pctx); err != nil {
		c.logger.Error(ctx, "Database ping failed", err)
		return fmt.Errorf("%w: %v", errors.ErrDatabaseConnection, err)
	}
	if latency := time.Since(start); latency > 100*time.Millisecond {
		c.logger.Warn(ctx, "High database latency detected", logger.Int64("latency_ms", latency.Milliseconds()))
	}
	return nil
}

// HealthCheck reports pool statistics.
func (c *DBConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	sqlDB, _ := c.db.DB()
	stats := sqlDB.Stats()
	return map[string]interface{}{
		"status":           "healthy",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"max_open":         stats.MaxOpenConnections,
	}, nil
}

// Close releases the pool.
func (c *DBConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.logger.Info(context.Background(), "Closing database pool")
	return sqlDB.Close()
}
