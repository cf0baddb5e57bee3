package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"daily-diet/internal/model"
)

type MealService struct {
	resolver  *SessionResolver
	meals     MealStore
	cache     MetricsCache
	publisher MealEventPublisher
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
}

type CreateMealInput struct {
	SessionID   string
	Title       string
	Description *string
	InDiet      bool
	// CreatedAt is an optional RFC 3339 timestamp supplied by the client.
	CreatedAt string
}

func NewMealService(
	resolver *SessionResolver,
	meals MealStore,
	cache MetricsCache,
	publisher MealEventPublisher,
	logger zerolog.Logger,
) *MealService {
	return &MealService{
		resolver:  resolver,
		meals:     meals,
		cache:     cache,
		publisher: publisher,
		logger:    logger.With().Str("component", "meal_service").Logger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *MealService) Create(ctx context.Context, input CreateMealInput) (*model.Meal, error) {
	if input.SessionID == "" {
		return nil, ErrMissingCredential
	}

	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	createdAt := s.now().UTC()
	if raw := strings.TrimSpace(input.CreatedAt); raw != "" {
		createdAt, err = parseTimestamp(raw)
		if err != nil {
			return nil, err
		}
	}

	// the session row must exist before the meal that references it
	if err := s.resolver.Register(ctx, input.SessionID); err != nil {
		return nil, err
	}

	meal := &model.Meal{
		ID:             s.newID(),
		Title:          title,
		Description:    normalizeDescription(input.Description),
		InDiet:         input.InDiet,
		CreatedAt:      createdAt,
		UpdatedAt:      s.now().UTC(),
		OwnerSessionID: input.SessionID,
	}
	if err := s.meals.Create(ctx, meal); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, model.MealCreated, meal.ID, input.SessionID, &meal.InDiet)
	return meal, nil
}

// List returns the caller's meals, most recent first.
func (s *MealService) List(ctx context.Context, sessionID string) ([]model.Meal, error) {
	if sessionID == "" {
		return nil, ErrMissingCredential
	}
	return s.meals.ListBySession(ctx, sessionID)
}

// Get returns nil without error when the meal does not exist.
func (s *MealService) Get(ctx context.Context, sessionID, mealID string) (*model.Meal, error) {
	if sessionID == "" {
		return nil, ErrMissingCredential
	}
	meal, err := s.meals.GetByID(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal == nil {
		return nil, nil
	}
	if decision := Authorize(sessionID, meal.OwnerSessionID); decision != Permit {
		return nil, decision.Err()
	}
	return meal, nil
}

// Update applies only the supplied fields. An empty change set succeeds without writing.
func (s *MealService) Update(ctx context.Context, sessionID, mealID string, changes model.MealChanges) error {
	if err := s.authorize(ctx, sessionID, mealID); err != nil {
		return err
	}

	if changes.Title != nil {
		title, err := normalizeTitle(*changes.Title)
		if err != nil {
			return err
		}
		changes.Title = &title
	}
	changes.Description = normalizeDescription(changes.Description)
	if changes.IsEmpty() {
		return nil
	}

	if err := s.meals.Update(ctx, mealID, changes); err != nil {
		return err
	}
	s.afterWrite(ctx, model.MealUpdated, mealID, sessionID, changes.InDiet)
	return nil
}

func (s *MealService) Delete(ctx context.Context, sessionID, mealID string) error {
	if err := s.authorize(ctx, sessionID, mealID); err != nil {
		return err
	}
	if err := s.meals.Delete(ctx, mealID); err != nil {
		return err
	}
	s.afterWrite(ctx, model.MealDeleted, mealID, sessionID, nil)
	return nil
}

func (s *MealService) Metrics(ctx context.Context, sessionID string) (*model.MealMetrics, error) {
	if sessionID == "" {
		return nil, ErrMissingCredential
	}

	generation := int64(-1)
	if s.cache != nil {
		if cached, hit, err := s.cache.GetMetrics(ctx, sessionID); err == nil && hit {
			return cached, nil
		}
		// taken before the store reads; a write after this point makes SetMetrics a no-op
		if current, err := s.cache.Generation(ctx, sessionID); err == nil {
			generation = current
		}
	}

	total, err := s.meals.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	inDiet, err := s.meals.CountBySessionWhere(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	history, err := s.meals.ListChronological(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	metrics := ComputeMetrics(total, inDiet, history)
	if s.cache != nil && generation >= 0 {
		_ = s.cache.SetMetrics(ctx, sessionID, generation, metrics)
	}
	return &metrics, nil
}

func (s *MealService) authorize(ctx context.Context, sessionID, mealID string) error {
	if sessionID == "" {
		return ErrMissingCredential
	}
	owner, err := s.meals.GetOwner(ctx, mealID)
	if err != nil {
		return err
	}
	return Authorize(sessionID, owner).Err()
}

func (s *MealService) afterWrite(ctx context.Context, kind model.MealEventType, mealID, sessionID string, inDiet *bool) {
	if s.cache != nil {
		if err := s.cache.DeleteMetrics(ctx, sessionID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("invalidate metrics cache failed")
		}
	}
	if s.publisher != nil {
		event := model.MealEvent{
			Type:       kind,
			MealID:     mealID,
			SessionID:  sessionID,
			InDiet:     inDiet,
			OccurredAt: s.now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("event", string(kind)).Str("meal_id", mealID).Msg("publish meal event failed")
		}
	}
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" || utf8.RuneCountInString(title) > model.MealTitleMaxLength {
		return "", ErrInvalidInput
	}
	return title, nil
}

func normalizeDescription(raw *string) *string {
	if raw == nil {
		return nil
	}
	description := strings.TrimSpace(*raw)
	return &description
}

func parseTimestamp(raw string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: created_at must be an ISO-8601 timestamp", ErrInvalidInput)
	}
	return parsed.UTC(), nil
}
