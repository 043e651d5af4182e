package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sriox/internal/config"
	"sriox/internal/logger"
	"sriox/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres through the pgx stdlib driver and wraps the pool with gorm.
// The returned *sql.DB is shared with the pgmq client.
func Open(cfg *config.Config, log zerolog.Logger) (*gorm.DB, *sql.DB, error) {
	dsn := cfg.DBConnectionString
	// Local databases usually run without TLS.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse db connection string: %w", err)
	}
	// Transaction poolers such as pgbouncer cannot keep server-side prepared statements.
	if cfg.Environment != "development" {
		connConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	sqlDB := stdlib.OpenDB(*connConfig)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	log.Info().Str("host", connConfig.Host).Msg("Database connection successful")

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Gorm(log),
	})
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, sqlDB, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Plan{},
		&model.Subscription{},
		&model.Site{},
		&model.Redirect{},
		&model.GithubPage{},
		&model.DeadLetterMessage{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	const oneActive = `CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_active
		ON subscriptions (user_id) WHERE status = 'active'`
	if err := db.Exec(oneActive).Error; err != nil {
		return fmt.Errorf("create active subscription index: %w", err)
	}
	return nil
}
