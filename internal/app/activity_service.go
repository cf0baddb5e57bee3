package app

import (
	"context"

	"daily-diet/internal/model"
)

// ActivityService reads the activity log filled by the meal event worker.
type ActivityService struct {
	events MealEventLog
}

func NewActivityService(events MealEventLog) *ActivityService {
	return &ActivityService{events: events}
}

func (s *ActivityService) List(ctx context.Context, sessionID string) ([]model.MealEvent, error) {
	if sessionID == "" {
		return nil, ErrMissingCredential
	}
	events, err := s.events.ListEventsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.MealEvent{}
	}
	return events, nil
}
