// Package memory keeps sessions, meals and meal events in process memory.
// It backs the "memory" database driver and the tests of the layers above the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"daily-diet/internal/model"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	meals    map[string]*model.Meal
	owners   map[string]string
	order    []string
	nextSeq  uint64
	events   []model.MealEvent
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]model.Session),
		meals:    make(map[string]*model.Meal),
		owners:   make(map[string]string),
	}
}

func (s *Store) Register(_ context.Context, session *model.Session) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return false, nil
	}
	s.sessions[session.ID] = *session
	return true, nil
}

// HasSession reports whether the session was registered.
func (s *Store) HasSession(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

func (s *Store) Create(_ context.Context, meal *model.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[meal.OwnerSessionID]; !ok {
		return ErrUnknownSession
	}
	if _, ok := s.meals[meal.ID]; ok {
		return ErrDuplicateMeal
	}
	s.nextSeq++
	meal.InsertSeq = s.nextSeq
	stored := cloneMeal(*meal)
	s.meals[meal.ID] = &stored
	s.owners[meal.ID] = meal.OwnerSessionID
	s.order = append(s.order, meal.ID)
	return nil
}

func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]model.Meal, error) {
	meals, err := s.ListChronological(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(meals)-1; i < j; i, j = i+1, j-1 {
		meals[i], meals[j] = meals[j], meals[i]
	}
	return meals, nil
}

func (s *Store) ListChronological(_ context.Context, sessionID string) ([]model.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meals := make([]model.Meal, 0)
	for _, id := range s.order {
		if s.owners[id] != sessionID {
			continue
		}
		meals = append(meals, cloneMeal(*s.meals[id]))
	}
	sort.Slice(meals, func(i, j int) bool {
		if !meals[i].CreatedAt.Equal(meals[j].CreatedAt) {
			return meals[i].CreatedAt.Before(meals[j].CreatedAt)
		}
		return meals[i].InsertSeq < meals[j].InsertSeq
	})
	return meals, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meal, ok := s.meals[id]
	if !ok {
		return nil, nil
	}
	found := cloneMeal(*meal)
	return &found, nil
}

func (s *Store) GetOwner(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owners[id], nil
}

func (s *Store) Update(_ context.Context, id string, changes model.MealChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meal, ok := s.meals[id]
	if !ok {
		return nil
	}
	if changes.Title != nil {
		meal.Title = *changes.Title
	}
	if changes.Description != nil {
		description := *changes.Description
		meal.Description = &description
	}
	if changes.InDiet != nil {
		meal.InDiet = *changes.InDiet
	}
	meal.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meals[id]; !ok {
		return nil
	}
	delete(s.meals, id)
	delete(s.owners, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) CountBySession(_ context.Context, sessionID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, owner := range s.owners {
		if owner == sessionID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountBySessionWhere(_ context.Context, sessionID string, inDiet bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for id, owner := range s.owners {
		if owner == sessionID && s.meals[id].InDiet == inDiet {
			count++
		}
	}
	return count, nil
}

// CreateEvent appends to the activity log.
func (s *Store) CreateEvent(_ context.Context, event *model.MealEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = uint(len(s.events) + 1)
	s.events = append(s.events, *event)
	return nil
}

func (s *Store) ListEventsBySession(_ context.Context, sessionID string) ([]model.MealEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.MealEvent, 0)
	for _, event := range s.events {
		if event.SessionID == sessionID {
			events = append(events, event)
		}
	}
	return events, nil
}

func cloneMeal(meal model.Meal) model.Meal {
	if meal.Description != nil {
		description := *meal.Description
		meal.Description = &description
	}
	return meal
}
