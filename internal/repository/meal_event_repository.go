package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-diet/internal/model"
)

type MealEventRepository struct {
	db *gorm.DB
}

func NewMealEventRepository(db *gorm.DB) *MealEventRepository {
	return &MealEventRepository{db: db}
}

func (r *MealEventRepository) CreateEvent(ctx context.Context, event *model.MealEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create meal event failed: %w", err)
	}
	return nil
}

func (r *MealEventRepository) ListEventsBySession(ctx context.Context, sessionID string) ([]model.MealEvent, error) {
	var events []model.MealEvent
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("occurred_at ASC, id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list meal events failed: %w", err)
	}
	return events, nil
}
