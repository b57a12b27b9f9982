package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// TaskRepository handles database operations for practice task records
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new repository instance
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create persists a freshly generated task and returns its id.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	query := `
		INSERT INTO tasks (id, user_id, prompt, reference, difficulty, topic)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Prompt, task.Reference, task.Difficulty, task.Topic,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return task.ID, nil
}

// GetLatestOpen returns the most recent unanswered task for a user, nil when
// there is none. The answer path matches an incoming reply against it.
func (r *TaskRepository) GetLatestOpen(ctx context.Context, userID int64) (*models.Task, error) {
	query := `
		SELECT id, user_id, prompt, reference, difficulty, topic, answered, quality, created_at
		FROM tasks
		WHERE user_id = $1 AND answered = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	var task models.Task
	err := r.db.GetContext(ctx, &task, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open task: %w", err)
	}
	return &task, nil
}

// MarkAnswered records the scored answer on the task row.
func (r *TaskRepository) MarkAnswered(ctx context.Context, taskID string, quality int, answeredAt time.Time) error {
	query := `
		UPDATE tasks SET answered = TRUE, quality = $1, answered_at = $2
		WHERE id = $3 AND answered = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, quality, answeredAt, taskID)
	if err != nil {
		return fmt.Errorf("failed to mark task answered: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s not found or already answered", taskID)
	}
	return nil
}

// RecentQualities returns the quality scores of the user's last n answered
// tasks, newest first. Used by the leveling engine.
func (r *TaskRepository) RecentQualities(ctx context.Context, userID int64, n int) ([]int, error) {
	query := `
		SELECT quality FROM tasks
		WHERE user_id = $1 AND answered = TRUE
		ORDER BY answered_at DESC
		LIMIT $2
	`
	var qualities []int
	if err := r.db.SelectContext(ctx, &qualities, query, userID, n); err != nil {
		return nil, fmt.Errorf("failed to get recent qualities: %w", err)
	}
	return qualities, nil
}
