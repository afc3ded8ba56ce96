package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"makeitreel/internal/model"
)

// PoolConfig bounds the connection pool. Connections are borrowed per
// statement or transaction and returned right after.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open returns a connected GORM DB instance. postgres:// and postgresql://
// DSNs use the PostgreSQL driver, anything else is treated as a MySQL DSN.
func Open(dsn string, pool PoolConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, nil
}

// OpenWithRetry keeps calling Open with exponential backoff so the server
// can start before the database accepts connections.
func OpenWithRetry(ctx context.Context, dsn string, pool PoolConfig, attempts uint64, log *slog.Logger) (*gorm.DB, error) {
	backoff := retry.WithCappedDuration(5*time.Second, retry.NewExponential(500*time.Millisecond))
	backoff = retry.WithMaxRetries(attempts, backoff)

	var db *gorm.DB
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		conn, err := Open(dsn, pool)
		if err != nil {
			log.WarnContext(ctx, "database not ready", "error", err)
			return retry.RetryableError(err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func dialector(dsn string) gorm.Dialector {
	if IsPostgres(dsn) {
		return postgres.Open(dsn)
	}
	return mysql.Open(dsn)
}

// IsPostgres reports whether the DSN targets PostgreSQL.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Migrate creates or updates the users, subscriptions and
// email_verification_codes tables.
func Migrate(db *gorm.DB) error {
	if err := dedupeVerificationCodes(db); err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Subscription{},
		&model.VerificationCode{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// MySQL has no partial indexes; there the repository transaction is the only guard.
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_active
			ON subscriptions (user_id) WHERE status = 'active'`).Error; err != nil {
			return fmt.Errorf("create active subscription index: %w", err)
		}
	}
	return nil
}

// dedupeVerificationCodes clears code rows left by schemas that predate the
// unique email index, so creating the index cannot fail on duplicates. Codes
// live for minutes and clients can request a new one.
func dedupeVerificationCodes(db *gorm.DB) error {
	m := db.Migrator()
	if !m.HasTable(&model.VerificationCode{}) || m.HasIndex(&model.VerificationCode{}, model.VerificationEmailIndex) {
		return nil
	}
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.VerificationCode{}).Error; err != nil {
		return fmt.Errorf("clear verification codes: %w", err)
	}
	if m.HasIndex(&model.VerificationCode{}, "idx_email_verification_codes_email") {
		if err := m.DropIndex(&model.VerificationCode{}, "idx_email_verification_codes_email"); err != nil {
			return fmt.Errorf("drop verification email index: %w", err)
		}
	}
	return nil
}

// Reset drops every table Migrate creates.
func Reset(db *gorm.DB) error {
	return db.Migrator().DropTable(&model.VerificationCode{}, &model.Subscription{}, &model.User{})
}
