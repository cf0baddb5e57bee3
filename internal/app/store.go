package app

import (
	"context"

	"daily-diet/internal/model"
)

type SessionStore interface {
	// Register inserts the session if absent and reports whether a row was written.
	Register(ctx context.Context, session *model.Session) (bool, error)
}

// MealStore is the persistence contract for meals. Every call is atomic on its own.
type MealStore interface {
	// Create writes the meal and its owner association together.
	Create(ctx context.Context, meal *model.Meal) error
	// ListBySession returns the session's meals, most recent first.
	ListBySession(ctx context.Context, sessionID string) ([]model.Meal, error)
	// ListChronological returns the session's meals, oldest first.
	ListChronological(ctx context.Context, sessionID string) ([]model.Meal, error)
	GetByID(ctx context.Context, id string) (*model.Meal, error)
	// GetOwner returns "" when the meal does not exist.
	GetOwner(ctx context.Context, id string) (string, error)
	Update(ctx context.Context, id string, changes model.MealChanges) error
	Delete(ctx context.Context, id string) error
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	CountBySessionWhere(ctx context.Context, sessionID string, inDiet bool) (int64, error)
}

// MetricsCache holds computed metrics per session. Every DeleteMetrics bumps the session's
// generation, and SetMetrics stores nothing when the generation moved past the one given.
type MetricsCache interface {
	GetMetrics(ctx context.Context, sessionID string) (*model.MealMetrics, bool, error)
	Generation(ctx context.Context, sessionID string) (int64, error)
	SetMetrics(ctx context.Context, sessionID string, generation int64, metrics model.MealMetrics) error
	DeleteMetrics(ctx context.Context, sessionID string) error
}

type MealEventPublisher interface {
	Publish(ctx context.Context, event model.MealEvent) error
}

type MealEventLog interface {
	// ListEventsBySession returns the session's recorded meal events, oldest first.
	ListEventsBySession(ctx context.Context, sessionID string) ([]model.MealEvent, error)
}
