package history

import (
	"time"

	"github.com/traintrack/traintrack/internal/trainings"
)

// Record is one day's logged performance of an exercise, keyed by
// trainee, exact exercise name and day. A renamed exercise starts a
// fresh history.
type Record struct {
	ID           int                   `json:"id"`
	TraineeID    string                `json:"traineeId"`
	ExerciseName string                `json:"exerciseName"`
	PerformedOn  time.Time             `json:"performedOn"`
	Sets         []trainings.ActualSet `json:"sets"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// TopWeight is the heaviest set of the record, 0 for no sets.
func (r Record) TopWeight() float64 {
	var top float64
	for _, s := range r.Sets {
		if s.Weight > top {
			top = s.Weight
		}
	}
	return top
}
