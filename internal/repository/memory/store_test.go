package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-diet/internal/model"
)

func TestListChronologicalBreaksTiesByInsertion(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_, err := store.Register(ctx, &model.Session{ID: "s-1"})
	require.NoError(t, err)

	same := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	meals := []*model.Meal{
		{ID: "zz", Title: "first", InDiet: true, CreatedAt: same, OwnerSessionID: "s-1"},
		{ID: "aa", Title: "earlier", InDiet: false, CreatedAt: same.Add(-time.Hour), OwnerSessionID: "s-1"},
		{ID: "mm", Title: "second", InDiet: false, CreatedAt: same, OwnerSessionID: "s-1"},
	}
	for _, meal := range meals {
		require.NoError(t, store.Create(ctx, meal))
	}
	assert.Equal(t, uint64(1), meals[0].InsertSeq)
	assert.Equal(t, uint64(3), meals[2].InsertSeq)

	chronological, err := store.ListChronological(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, chronological, 3)
	assert.Equal(t, []string{"earlier", "first", "second"}, titles(chronological))

	recent, err := store.ListBySession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first", "earlier"}, titles(recent))
}

func TestCreateRequiresRegisteredSession(t *testing.T) {
	store := NewStore()
	err := store.Create(context.Background(), &model.Meal{ID: "m-1", OwnerSessionID: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func titles(meals []model.Meal) []string {
	out := make([]string, 0, len(meals))
	for _, meal := range meals {
		out = append(out, meal.Title)
	}
	return out
}
