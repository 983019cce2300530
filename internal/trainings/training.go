package trainings

import (
	"time"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ActualSet is one logged set of an exercise. Immutable value, a
// correction replaces the whole set.
type ActualSet struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type Exercise struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Sets         int         `json:"sets"`
	Reps         int         `json:"reps"`
	TargetWeight *float64    `json:"targetWeight,omitempty"`
	Instructions string      `json:"instructions,omitempty"`
	ActualSets   []ActualSet `json:"actualSets"`
}

// Complete: all target sets logged. Partial: some but not all. Invariant
// kept by the controller: 0 <= len(ActualSets) <= Sets.
func (e Exercise) Complete() bool {
	return len(e.ActualSets) >= e.Sets
}

func (e Exercise) Partial() bool {
	return len(e.ActualSets) > 0 && len(e.ActualSets) < e.Sets
}

func (e Exercise) Empty() bool {
	return len(e.ActualSets) == 0
}

type Training struct {
	ID            int        `json:"id"`
	TraineeID     string     `json:"traineeId"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Difficulty    Difficulty `json:"difficulty"`
	ScheduledDate time.Time  `json:"scheduledDate"`
	Exercises     []Exercise `json:"exercises"`
	Notes         string     `json:"notes,omitempty"`
	IsCompleted   bool       `json:"isCompleted"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Exercise returns a pointer into t.Exercises so edits stick.
func (t *Training) Exercise(exerciseID string) (*Exercise, bool) {
	for i := range t.Exercises {
		if t.Exercises[i].ID == exerciseID {
			return &t.Exercises[i], true
		}
	}
	return nil, false
}
