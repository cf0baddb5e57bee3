package app

import "daily-diet/internal/model"

// LongestDietStreak returns the longest run of consecutive in-diet meals.
// meals must be ordered by created_at ascending; the listing order is newest first and
// must not be passed here.
func LongestDietStreak(meals []model.Meal) int {
	best, run := 0, 0
	for _, meal := range meals {
		if !meal.InDiet {
			if run > best {
				best = run
			}
			run = 0
			continue
		}
		run++
	}
	// history may end inside a run
	if run > best {
		best = run
	}
	return best
}

// ComputeMetrics builds the aggregate view from store counts and the chronological history.
func ComputeMetrics(total, inDiet int64, chronological []model.Meal) model.MealMetrics {
	return model.MealMetrics{
		TotalMeals:         total,
		TotalDietMeals:     inDiet,
		TotalNonDietMeals:  total - inDiet,
		DietSequenceRecord: LongestDietStreak(chronological),
	}
}
