package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect establishes a connection to the Postgres record store and makes sure
// the schema exists.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_configs (
			user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			start_time TEXT NOT NULL DEFAULT '09:00',
			end_time TEXT NOT NULL DEFAULT '21:00',
			messages_per_day INTEGER NOT NULL DEFAULT 3,
			timezone TEXT NOT NULL DEFAULT 'Europe/Moscow',
			difficulty INTEGER NOT NULL DEFAULT 1,
			topic TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(telegram_id),
			prompt TEXT NOT NULL,
			reference TEXT NOT NULL,
			difficulty INTEGER NOT NULL DEFAULT 1,
			topic TEXT NOT NULL DEFAULT '',
			answered BOOLEAN NOT NULL DEFAULT FALSE,
			quality INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			answered_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS daily_aggregates (
			user_id BIGINT NOT NULL REFERENCES users(telegram_id),
			date DATE NOT NULL,
			total_tasks INTEGER NOT NULL DEFAULT 0,
			completed_tasks INTEGER NOT NULL DEFAULT 0,
			quality_sum INTEGER NOT NULL DEFAULT 0,
			expected_tasks INTEGER NOT NULL DEFAULT 0,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			incorrect_answers INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks (user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return nil
}
