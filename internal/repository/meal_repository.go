package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-diet/internal/model"
)

const ownedMealColumns = "meals.*, meal_sessions.session_id AS owner_session_id"

type MealRepository struct {
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create writes the meal and its association in one transaction.
func (r *MealRepository) Create(ctx context.Context, meal *model.Meal) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(meal).Error; err != nil {
			return fmt.Errorf("create meal failed: %w", err)
		}
		link := &model.MealSession{
			ID:        uuid.NewString(),
			SessionID: meal.OwnerSessionID,
			MealID:    meal.ID,
		}
		if err := tx.Omit(clause.Associations).Create(link).Error; err != nil {
			return fmt.Errorf("create meal session link failed: %w", err)
		}
		return nil
	})
	return err
}

func (r *MealRepository) ListBySession(ctx context.Context, sessionID string) ([]model.Meal, error) {
	var meals []model.Meal
	if err := r.ownedBy(ctx, sessionID).Order("meals.created_at DESC").Order("meals.insert_seq DESC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals failed: %w", err)
	}
	return meals, nil
}

func (r *MealRepository) ListChronological(ctx context.Context, sessionID string) ([]model.Meal, error) {
	var meals []model.Meal
	if err := r.ownedBy(ctx, sessionID).Order("meals.created_at ASC").Order("meals.insert_seq ASC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals chronologically failed: %w", err)
	}
	return meals, nil
}

func (r *MealRepository) GetByID(ctx context.Context, id string) (*model.Meal, error) {
	var meal model.Meal
	err := r.db.WithContext(ctx).
		Select(ownedMealColumns).
		Joins("JOIN meal_sessions ON meal_sessions.meal_id = meals.id").
		Where("meals.id = ?", id).
		Take(&meal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get meal failed: %w", err)
	}
	return &meal, nil
}

func (r *MealRepository) GetOwner(ctx context.Context, id string) (string, error) {
	var owners []string
	if err := r.db.WithContext(ctx).Model(&model.MealSession{}).Where("meal_id = ?", id).Limit(1).Pluck("session_id", &owners).Error; err != nil {
		return "", fmt.Errorf("get meal owner failed: %w", err)
	}
	if len(owners) == 0 {
		return "", nil
	}
	return owners[0], nil
}

func (r *MealRepository) Update(ctx context.Context, id string, changes model.MealChanges) error {
	updates := map[string]interface{}{}
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	if changes.Description != nil {
		updates["description"] = *changes.Description
	}
	if changes.InDiet != nil {
		updates["in_diet"] = *changes.InDiet
	}
	if len(updates) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Model(&model.Meal{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update meal failed: %w", err)
	}
	return nil
}

func (r *MealRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_id = ?", id).Delete(&model.MealSession{}).Error; err != nil {
			return fmt.Errorf("delete meal session link failed: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&model.Meal{}).Error; err != nil {
			return fmt.Errorf("delete meal failed: %w", err)
		}
		return nil
	})
	return err
}

func (r *MealRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	if err := r.joined(ctx, sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count meals failed: %w", err)
	}
	return count, nil
}

func (r *MealRepository) CountBySessionWhere(ctx context.Context, sessionID string, inDiet bool) (int64, error) {
	var count int64
	if err := r.joined(ctx, sessionID).Where("meals.in_diet = ?", inDiet).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count meals by diet flag failed: %w", err)
	}
	return count, nil
}

func (r *MealRepository) joined(ctx context.Context, sessionID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Meal{}).
		Joins("JOIN meal_sessions ON meal_sessions.meal_id = meals.id").
		Where("meal_sessions.session_id = ?", sessionID)
}

func (r *MealRepository) ownedBy(ctx context.Context, sessionID string) *gorm.DB {
	return r.joined(ctx, sessionID).Select(ownedMealColumns)
}
