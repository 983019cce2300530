package nutrition

import (
	"time"
)

// Food is one logged item. Calories are for the portion eaten, not per
// hundred grams.
type Food struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

// Entry is a day of logged food. One row per trainee per day, foods
// appended as the day goes on.
type Entry struct {
	ID        int       `json:"id"`
	TraineeID string    `json:"traineeId"`
	Date      time.Time `json:"date"`
	Foods     []Food    `json:"foods"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e Entry) TotalCalories() int {
	total := 0
	for _, food := range e.Foods {
		total += food.Calories
	}
	return total
}
