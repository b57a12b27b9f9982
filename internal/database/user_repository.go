package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// UserRepository handles database operations for users and their schedule
// settings.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the user row or refreshes the mutable profile fields.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.FirstName, user.LastName); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByID returns a single user or nil when unknown.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT telegram_id, username, first_name, last_name, is_admin, created_at, updated_at
		FROM users
		WHERE telegram_id = $1
	`
	var user models.User
	err := r.db.GetContext(ctx, &user, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetEnabledUsers returns the schedule settings of every user with practice
// delivery switched on. This is the dispatch loop's per-tick scan.
func (r *UserRepository) GetEnabledUsers(ctx context.Context) ([]models.UserScheduleConfig, error) {
	query := `
		SELECT user_id, enabled, start_time, end_time, messages_per_day, timezone, difficulty, topic
		FROM schedule_configs
		WHERE enabled = TRUE
		ORDER BY user_id
	`
	var configs []models.UserScheduleConfig
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("failed to get enabled users: %w", err)
	}
	return configs, nil
}

// GetScheduleConfig returns the schedule settings for one user, nil if the
// user never configured practice.
func (r *UserRepository) GetScheduleConfig(ctx context.Context, userID int64) (*models.UserScheduleConfig, error) {
	query := `
		SELECT user_id, enabled, start_time, end_time, messages_per_day, timezone, difficulty, topic
		FROM schedule_configs
		WHERE user_id = $1
	`
	var cfg models.UserScheduleConfig
	err := r.db.GetContext(ctx, &cfg, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule config: %w", err)
	}
	return &cfg, nil
}

// SaveScheduleConfig inserts or replaces the user's schedule settings.
func (r *UserRepository) SaveScheduleConfig(ctx context.Context, cfg *models.UserScheduleConfig) error {
	query := `
		INSERT INTO schedule_configs (user_id, enabled, start_time, end_time, messages_per_day, timezone, difficulty, topic, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			messages_per_day = EXCLUDED.messages_per_day,
			timezone = EXCLUDED.timezone,
			difficulty = EXCLUDED.difficulty,
			topic = EXCLUDED.topic,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		cfg.UserID, cfg.Enabled, cfg.StartTime, cfg.EndTime,
		cfg.MessagesPerDay, cfg.Timezone, cfg.Difficulty, cfg.Topic,
	)
	if err != nil {
		return fmt.Errorf("failed to save schedule config: %w", err)
	}
	return nil
}

// UpdateDifficulty stores the leveling engine's latest difficulty for a user.
func (r *UserRepository) UpdateDifficulty(ctx context.Context, userID int64, difficulty int) error {
	query := `UPDATE schedule_configs SET difficulty = $1, updated_at = NOW() WHERE user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, difficulty, userID); err != nil {
		return fmt.Errorf("failed to update difficulty: %w", err)
	}
	return nil
}

// IsAdmin reports whether the user has the admin flag set.
func (r *UserRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var isAdmin bool
	err := r.db.GetContext(ctx, &isAdmin, `SELECT is_admin FROM users WHERE telegram_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check admin flag: %w", err)
	}
	return isAdmin, nil
}
