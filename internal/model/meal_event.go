package model

import "time"

type MealEventType string

const (
	MealCreated MealEventType = "meal.created"
	MealUpdated MealEventType = "meal.updated"
	MealDeleted MealEventType = "meal.deleted"
)

// MealEvent is an entry of the per-session activity log.
type MealEvent struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Type       MealEventType `gorm:"size:32;not null;index" json:"type"`
	MealID     string        `gorm:"type:char(36);not null;index" json:"meal_id"`
	SessionID  string        `gorm:"type:char(36);not null;index" json:"session_id"`
	InDiet     *bool         `json:"in_diet,omitempty"`
	OccurredAt time.Time     `gorm:"not null" json:"occurred_at"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (MealEvent) TableName() string {
	return "meal_events"
}
