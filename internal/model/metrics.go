package model

// MealMetrics summarizes a session's meal history.
type MealMetrics struct {
	TotalMeals         int64 `json:"total_meals"`
	TotalDietMeals     int64 `json:"total_diet_meals"`
	TotalNonDietMeals  int64 `json:"total_non_diet_meals"`
	DietSequenceRecord int   `json:"diet_sequence_record"`
}
