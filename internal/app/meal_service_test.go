package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-diet/internal/model"
	"daily-diet/internal/repository/memory"
)

type fakeCache struct {
	entries     map[string]model.MealMetrics
	generations map[string]int64
	deletes     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:     make(map[string]model.MealMetrics),
		generations: make(map[string]int64),
	}
}

func (c *fakeCache) GetMetrics(_ context.Context, sessionID string) (*model.MealMetrics, bool, error) {
	metrics, ok := c.entries[sessionID]
	if !ok {
		return nil, false, nil
	}
	return &metrics, true, nil
}

func (c *fakeCache) Generation(_ context.Context, sessionID string) (int64, error) {
	return c.generations[sessionID], nil
}

func (c *fakeCache) SetMetrics(_ context.Context, sessionID string, generation int64, metrics model.MealMetrics) error {
	if c.generations[sessionID] != generation {
		return nil
	}
	c.entries[sessionID] = metrics
	return nil
}

func (c *fakeCache) DeleteMetrics(_ context.Context, sessionID string) error {
	c.deletes++
	c.generations[sessionID]++
	delete(c.entries, sessionID)
	return nil
}

// interleavingStore runs beforeList once, inside the first ListChronological call.
type interleavingStore struct {
	*memory.Store
	beforeList func()
}

func (s *interleavingStore) ListChronological(ctx context.Context, sessionID string) ([]model.Meal, error) {
	if hook := s.beforeList; hook != nil {
		s.beforeList = nil
		hook()
	}
	return s.Store.ListChronological(ctx, sessionID)
}

type fakePublisher struct {
	events []model.MealEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event model.MealEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type failingSessionStore struct{}

func (failingSessionStore) Register(context.Context, *model.Session) (bool, error) {
	return false, errors.New("sessions table locked")
}

type fixture struct {
	store     *memory.Store
	cache     *fakeCache
	publisher *fakePublisher
	service   *MealService
}

func newFixture() *fixture {
	store := memory.NewStore()
	cache := newFakeCache()
	publisher := &fakePublisher{}
	service := NewMealService(NewSessionResolver(store), store, cache, publisher, zerolog.New(io.Discard))
	return &fixture{store: store, cache: cache, publisher: publisher, service: service}
}

var base = time.Date(2024, 4, 3, 8, 0, 0, 0, time.UTC)

func (f *fixture) create(t *testing.T, sessionID, title string, inDiet bool, offset time.Duration) *model.Meal {
	t.Helper()
	meal, err := f.service.Create(context.Background(), CreateMealInput{
		SessionID: sessionID,
		Title:     title,
		InDiet:    inDiet,
		CreatedAt: base.Add(offset).Format(time.RFC3339),
	})
	require.NoError(t, err)
	return meal
}

func TestCreateRegistersSessionBeforeMeal(t *testing.T) {
	f := newFixture()
	session := uuid.NewString()
	description := "  ate a hamburguer with friends "

	meal, err := f.service.Create(context.Background(), CreateMealInput{
		SessionID:   session,
		Title:       " hamburguer ",
		Description: &description,
		InDiet:      false,
	})
	require.NoError(t, err)

	assert.True(t, f.store.HasSession(session))
	assert.Equal(t, "hamburguer", meal.Title)
	require.NotNil(t, meal.Description)
	assert.Equal(t, "ate a hamburguer with friends", *meal.Description)
	assert.False(t, meal.CreatedAt.IsZero())

	owner, err := f.store.GetOwner(context.Background(), meal.ID)
	require.NoError(t, err)
	assert.Equal(t, session, owner)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, model.MealCreated, f.publisher.events[0].Type)
}

func TestCreateHonorsClientTimestamp(t *testing.T) {
	f := newFixture()
	meal, err := f.service.Create(context.Background(), CreateMealInput{
		SessionID: uuid.NewString(),
		Title:     "salad",
		InDiet:    true,
		CreatedAt: "2023-04-03T22:42:41-03:00",
	})
	require.NoError(t, err)
	assert.True(t, time.Date(2023, 4, 4, 1, 42, 41, 0, time.UTC).Equal(meal.CreatedAt))
	assert.Equal(t, time.UTC, meal.CreatedAt.Location())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	session := uuid.NewString()

	tests := []struct {
		name  string
		input CreateMealInput
		want  error
	}{
		{name: "missing session", input: CreateMealInput{Title: "salad"}, want: ErrMissingCredential},
		{name: "empty title", input: CreateMealInput{SessionID: session, Title: "   "}, want: ErrInvalidInput},
		{name: "title too long", input: CreateMealInput{SessionID: session, Title: "abcdefghijklmnopqrstuvwxyz12345"}, want: ErrInvalidInput},
		{name: "malformed timestamp", input: CreateMealInput{SessionID: session, Title: "salad", CreatedAt: "yesterday"}, want: ErrInvalidInput},
		{name: "timestamp without zone", input: CreateMealInput{SessionID: session, Title: "salad", CreatedAt: "2024-05-01T12:00:00"}, want: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.False(t, f.store.HasSession(session), "rejected input never registers the session")
}

func TestCreateAcceptsThirtyCharacterTitle(t *testing.T) {
	f := newFixture()
	_, err := f.service.Create(context.Background(), CreateMealInput{
		SessionID: uuid.NewString(),
		Title:     "pão de queijo com café e leite",
		InDiet:    true,
	})
	assert.NoError(t, err)
}

func TestCreateAbortsWhenSessionRegistrationFails(t *testing.T) {
	store := memory.NewStore()
	service := NewMealService(NewSessionResolver(failingSessionStore{}), store, nil, nil, zerolog.New(io.Discard))
	session := uuid.NewString()

	_, err := service.Create(context.Background(), CreateMealInput{SessionID: session, Title: "salad", InDiet: true})
	require.Error(t, err)

	count, err := store.CountBySession(context.Background(), session)
	require.NoError(t, err)
	assert.Zero(t, count, "no orphaned meal")
}

func TestListIsScopedAndNewestFirst(t *testing.T) {
	f := newFixture()
	x, y := uuid.NewString(), uuid.NewString()
	f.create(t, x, "hamburguer", false, 0)
	f.create(t, y, "other", false, time.Minute)
	f.create(t, x, "salad", true, 2*time.Minute)

	meals, err := f.service.List(context.Background(), x)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "salad", meals[0].Title)
	assert.Equal(t, "hamburguer", meals[1].Title)
	for _, meal := range meals {
		assert.Equal(t, x, meal.OwnerSessionID)
	}

	_, err = f.service.List(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestGetOwnership(t *testing.T) {
	f := newFixture()
	x, y := uuid.NewString(), uuid.NewString()
	meal := f.create(t, x, "salad", true, 0)

	got, err := f.service.Get(context.Background(), x, meal.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, meal.ID, got.ID)

	_, err = f.service.Get(context.Background(), y, meal.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err = f.service.Get(context.Background(), x, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got, "absent meal is an empty result")

	_, err = f.service.Get(context.Background(), "", meal.ID)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestUpdateAppliesOnlySuppliedFields(t *testing.T) {
	f := newFixture()
	x := uuid.NewString()
	description := "ate a hamburguer with friends"
	meal, err := f.service.Create(context.Background(), CreateMealInput{SessionID: x, Title: "hamburguer", Description: &description})
	require.NoError(t, err)

	title := "salad"
	require.NoError(t, f.service.Update(context.Background(), x, meal.ID, model.MealChanges{Title: &title}))
	inDiet := true
	require.NoError(t, f.service.Update(context.Background(), x, meal.ID, model.MealChanges{InDiet: &inDiet}))

	got, err := f.service.Get(context.Background(), x, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, "salad", got.Title)
	assert.True(t, got.InDiet)
	require.NotNil(t, got.Description)
	assert.Equal(t, description, *got.Description)
	assert.Equal(t, x, got.OwnerSessionID)
}

func TestUpdateWithNoFieldsIsNoop(t *testing.T) {
	f := newFixture()
	x := uuid.NewString()
	meal := f.create(t, x, "salad", true, 0)
	published := len(f.publisher.events)

	require.NoError(t, f.service.Update(context.Background(), x, meal.ID, model.MealChanges{}))

	got, err := f.service.Get(context.Background(), x, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, meal.Title, got.Title)
	assert.Equal(t, meal.InDiet, got.InDiet)
	assert.Len(t, f.publisher.events, published)
}

func TestUpdateRejections(t *testing.T) {
	f := newFixture()
	x, y := uuid.NewString(), uuid.NewString()
	meal := f.create(t, x, "salad", true, 0)
	title := "pizza"

	assert.ErrorIs(t, f.service.Update(context.Background(), y, meal.ID, model.MealChanges{Title: &title}), ErrNotOwner)
	assert.ErrorIs(t, f.service.Update(context.Background(), "", meal.ID, model.MealChanges{Title: &title}), ErrMissingCredential)
	assert.ErrorIs(t, f.service.Update(context.Background(), x, uuid.NewString(), model.MealChanges{Title: &title}), ErrMealNotFound)

	empty := ""
	assert.ErrorIs(t, f.service.Update(context.Background(), x, meal.ID, model.MealChanges{Title: &empty}), ErrInvalidInput)

	got, err := f.service.Get(context.Background(), x, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, "salad", got.Title)
}

func TestDeleteOwnership(t *testing.T) {
	f := newFixture()
	x, y := uuid.NewString(), uuid.NewString()
	meal := f.create(t, x, "salad", true, 0)

	assert.ErrorIs(t, f.service.Delete(context.Background(), y, meal.ID), ErrNotOwner)
	assert.ErrorIs(t, f.service.Delete(context.Background(), "", meal.ID), ErrMissingCredential)

	require.NoError(t, f.service.Delete(context.Background(), x, meal.ID))
	assert.ErrorIs(t, f.service.Delete(context.Background(), x, meal.ID), ErrMealNotFound)

	got, err := f.service.Get(context.Background(), x, meal.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMetricsStreakScenario(t *testing.T) {
	f := newFixture()
	x := uuid.NewString()
	step := 0
	add := func(title string, inDiet bool) {
		step++
		f.create(t, x, title, inDiet, time.Duration(step)*time.Hour)
	}
	record := func() int {
		metrics, err := f.service.Metrics(context.Background(), x)
		require.NoError(t, err)
		assert.Equal(t, metrics.TotalMeals, metrics.TotalDietMeals+metrics.TotalNonDietMeals)
		return metrics.DietSequenceRecord
	}

	add("A", false)
	assert.Equal(t, 0, record())

	add("B", true)
	add("C", true)
	add("D", true)
	assert.Equal(t, 3, record())

	add("E", false)
	assert.Equal(t, 3, record())

	add("F", true)
	add("G", true)
	assert.Equal(t, 3, record())

	metrics, err := f.service.Metrics(context.Background(), x)
	require.NoError(t, err)
	assert.EqualValues(t, 7, metrics.TotalMeals)
	assert.EqualValues(t, 5, metrics.TotalDietMeals)
	assert.EqualValues(t, 2, metrics.TotalNonDietMeals)
}

func TestMetricsUseChronologicalOrderNotInsertionOrder(t *testing.T) {
	f := newFixture()
	x := uuid.NewString()
	// inserted out of order; chronologically: diet, diet, non-diet, diet
	f.create(t, x, "late", true, 4*time.Hour)
	f.create(t, x, "first", true, time.Hour)
	f.create(t, x, "third", false, 3*time.Hour)
	f.create(t, x, "second", true, 2*time.Hour)

	metrics, err := f.service.Metrics(context.Background(), x)
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.DietSequenceRecord)
}

func TestMetricsCacheIsInvalidatedOnWrite(t *testing.T) {
	f := newFixture()
	x := uuid.NewString()
	meal := f.create(t, x, "salad", true, 0)

	first, err := f.service.Metrics(context.Background(), x)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.TotalMeals)
	_, cached := f.cache.entries[x]
	assert.True(t, cached)

	inDiet := false
	require.NoError(t, f.service.Update(context.Background(), x, meal.ID, model.MealChanges{InDiet: &inDiet}))
	_, cached = f.cache.entries[x]
	assert.False(t, cached)

	second, err := f.service.Metrics(context.Background(), x)
	require.NoError(t, err)
	assert.EqualValues(t, 0, second.TotalDietMeals)
	assert.Equal(t, 0, second.DietSequenceRecord)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker unreachable")

	meal, err := f.service.Create(context.Background(), CreateMealInput{SessionID: uuid.NewString(), Title: "salad", InDiet: true})
	require.NoError(t, err)
	assert.NotEmpty(t, meal.ID)
}

func TestMetricsRequireCredential(t *testing.T) {
	f := newFixture()
	_, err := f.service.Metrics(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingCredential)

	metrics, err := f.service.Metrics(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Zero(t, metrics.TotalMeals)
	assert.Zero(t, metrics.DietSequenceRecord)
}

func TestMetricsComputedAcrossWriteAreNotCached(t *testing.T) {
	store := &interleavingStore{Store: memory.NewStore()}
	cache := newFakeCache()
	service := NewMealService(NewSessionResolver(store), store, cache, nil, zerolog.New(io.Discard))
	ctx := context.Background()
	x := uuid.NewString()

	_, err := service.Create(ctx, CreateMealInput{SessionID: x, Title: "salad", InDiet: true})
	require.NoError(t, err)

	store.beforeList = func() {
		_, err := service.Create(ctx, CreateMealInput{SessionID: x, Title: "pizza", InDiet: false})
		require.NoError(t, err)
	}
	stale, err := service.Metrics(ctx, x)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stale.TotalMeals)

	_, cached := cache.entries[x]
	assert.False(t, cached, "metrics computed across a write must not be cached")

	fresh, err := service.Metrics(ctx, x)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fresh.TotalMeals)
	assert.EqualValues(t, 1, fresh.TotalNonDietMeals)
	_, cached = cache.entries[x]
	assert.True(t, cached)
}
