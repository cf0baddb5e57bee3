package model

import "time"

const MealTitleMaxLength = 30

type Meal struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string    `gorm:"size:32;not null;index" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	InDiet      bool      `gorm:"not null" json:"in_diet"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// InsertSeq orders meals sharing a created_at by insertion.
	InsertSeq uint64 `gorm:"autoIncrement;uniqueIndex" json:"-"`

	// OwnerSessionID is read from the meal_sessions association, never written through Meal.
	OwnerSessionID string `gorm:"->;-:migration" json:"-"`
}

func (Meal) TableName() string {
	return "meals"
}

// MealChanges carries a partial edit. Nil fields are left untouched.
type MealChanges struct {
	Title       *string
	Description *string
	InDiet      *bool
}

func (c MealChanges) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.InDiet == nil
}

// MealSession binds a meal to its owning session. One row per meal.
type MealSession struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	SessionID string `gorm:"type:char(36);not null;index"`
	MealID    string `gorm:"type:char(36);not null;uniqueIndex"`

	Session Session `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Meal    Meal    `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE"`
}

func (MealSession) TableName() string {
	return "meal_sessions"
}
