package models

import "time"

// Task represents a single practice task sent to a user
type Task struct {
	ID         string    `json:"id" db:"id"` // UUID
	UserID     int64     `json:"user_id" db:"user_id"`
	Prompt     string    `json:"prompt" db:"prompt"`         // Sentence to translate
	Reference  string    `json:"reference" db:"reference"`   // Reference translation
	Difficulty int       `json:"difficulty" db:"difficulty"` // Difficulty the task was generated at
	Topic      string    `json:"topic" db:"topic"`
	Answered   bool      `json:"answered" db:"answered"`
	Quality    int       `json:"quality" db:"quality"` // 0-100 score of the answer, 0 until answered
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	AnsweredAt time.Time `json:"answered_at" db:"answered_at"`
}
