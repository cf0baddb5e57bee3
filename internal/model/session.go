package model

import "time"

// Session is an anonymous client identity. The id is the token carried by the client.
type Session struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}
