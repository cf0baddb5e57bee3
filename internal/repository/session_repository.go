package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-diet/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Register is idempotent: a concurrent insert of the same id is not an error.
func (r *SessionRepository) Register(ctx context.Context, session *model.Session) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(session)
	if result.Error != nil {
		return false, fmt.Errorf("register session failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
