package models

import "time"

// User represents a Telegram user enrolled in practice
type User struct {
	ID         int64     `json:"id" db:"telegram_id"` // Telegram User ID
	Username   string    `json:"username" db:"username"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	IsAdmin    bool      `json:"is_admin" db:"is_admin"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// UserScheduleConfig holds the per-user practice delivery settings.
// Owned by the profile layer; the scheduler only reads it.
type UserScheduleConfig struct {
	UserID         int64  `json:"user_id" db:"user_id"`
	Enabled        bool   `json:"enabled" db:"enabled"`
	StartTime      string `json:"start_time" db:"start_time"`             // Window start, "HH:MM"
	EndTime        string `json:"end_time" db:"end_time"`                 // Window end, "HH:MM"
	MessagesPerDay int    `json:"messages_per_day" db:"messages_per_day"` // Daily quota (1-10)
	Timezone       string `json:"timezone" db:"timezone"`                 // Named zone; window arithmetic currently uses one global zone
	Difficulty     int    `json:"difficulty" db:"difficulty"`             // Practice difficulty (1-5)
	Topic          string `json:"topic" db:"topic"`                       // Preferred sentence topic, empty = any
}
