package database

import (
	"context"
	"fmt"
	"log"

	"referral-system/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

func InitDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var err error
	Pool, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := Pool.Ping(context.Background()); err != nil {
		return fmt.Errorf("unable to ping database: %w", err)
	}

	log.Println("✅ Подключение к PostgreSQL установлено")
	if err := createUsersTable(); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	if err := createUserStatsTable(); err != nil {
		return fmt.Errorf("failed to create user_stats table: %w", err)
	}
	if err := createSubscriptionsTable(); err != nil {
		return fmt.Errorf("failed to create subscriptions table: %w", err)
	}
	if err := createTransactionsTable(); err != nil {
		return fmt.Errorf("failed to create transactions table: %w", err)
	}
	if err := createReferralsTable(); err != nil {
		return fmt.Errorf("failed to create referrals table: %w", err)
	}
	if err := createWithdrawalsTable(); err != nil {
		return fmt.Errorf("failed to create withdrawals table: %w", err)
	}
	return nil
}

func CloseDB() {
	if Pool != nil {
		Pool.Close()
		log.Println("🛑 Соединение с PostgreSQL закрыто")
	}
}

func createUsersTable() error {
	_, err := Pool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email VARCHAR(255) UNIQUE NOT NULL,
            password_hash VARCHAR(255) NOT NULL DEFAULT 'external_identity',
            role VARCHAR(20) NOT NULL DEFAULT 'USER',
            referred_by_id TEXT REFERENCES users(id) ON DELETE SET NULL,
            referral_code VARCHAR(32) UNIQUE NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	return err
}

func createUserStatsTable() error {
	_, err := Pool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS user_stats (
            user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            earnings DOUBLE PRECISION NOT NULL DEFAULT 0,
            referrals INTEGER NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (earnings >= 0)
        );
    `)
	return err
}

func createSubscriptionsTable() error {
	_, err := Pool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS subscriptions (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type VARCHAR(20) NOT NULL DEFAULT 'FREE',
            price DOUBLE PRECISION NOT NULL DEFAULT 0,
            expires_at TIMESTAMPTZ NOT NULL,
            processor_subscription_id TEXT,
            reminded_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id);
        CREATE INDEX IF NOT EXISTS idx_subscriptions_expires ON subscriptions(expires_at);
    `)
	return err
}

func createTransactionsTable() error {
	_, err := Pool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS transactions (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            amount DOUBLE PRECISION NOT NULL,
            type VARCHAR(20) NOT NULL,
            source VARCHAR(50),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
    `)
	return err
}

func createReferralsTable() error {
	_, err := Pool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS referrals (
            id TEXT PRIMARY KEY,
            referrer_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            referred_id TEXT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (referrer_id <> referred_id)
        );
    `)
	return err
}

func createWithdrawalsTable() error {
	_, err := Pool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS withdrawals (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            amount DOUBLE PRECISION NOT NULL,
            method VARCHAR(20) NOT NULL,
            status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_withdrawals_user ON withdrawals(user_id);
    `)
	return err
}
