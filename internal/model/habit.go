package model

import "time"

const (
	DefaultHabitDurationSeconds = 120
	DefaultHabitPeriodicity     = 1
)

type Habit struct {
	ID              int64     `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Action          string    `json:"action"`
	Place           *string   `json:"place"`
	Time            time.Time `json:"time"`
	DurationSeconds int       `json:"durationSeconds"`
	Periodicity     int       `json:"periodicity"`
	IsPleasant      bool      `json:"isPleasant"`
	RelatedHabitID  *int64    `json:"relatedHabitId"`
	Reward          *string   `json:"reward"`
	IsPublished     bool      `json:"isPublished"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Phone          *string   `json:"phone,omitempty"`
	City           *string   `json:"city,omitempty"`
	TelegramChatID string    `json:"telegramChatId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
