package goals

import (
	"time"
)

// Type tags the goal variant. All variants share the same progress
// contract and differ only in how the UI presents them.
type Type string

const (
	TypeWeight      Type = "weight"
	TypeMeasurement Type = "measurement"
	TypePerformance Type = "performance"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeWeight, TypeMeasurement, TypePerformance:
		return true
	}
	return false
}

// Goal is authored by the trainer system, which also owns the progress
// formula. ProgressPercentage arrives precomputed and this service only
// clamps it for display.
type Goal struct {
	ID                 int       `json:"id"`
	TraineeID          string    `json:"traineeId"`
	Type               Type      `json:"type"`
	Name               string    `json:"name"`
	CurrentValue       float64   `json:"currentValue"`
	TargetValue        float64   `json:"targetValue"`
	Unit               string    `json:"unit"`
	Deadline           time.Time `json:"deadline"`
	IsCompleted        bool      `json:"isCompleted"`
	ProgressPercentage float64   `json:"progressPercentage"`
	CreatedAt          time.Time `json:"createdAt"`
}

// DisplayProgress clamps the precomputed percentage into the 0 to 100
// display range. Trainer formulas overshoot on exceeded targets.
func (g Goal) DisplayProgress() float64 {
	if g.ProgressPercentage < 0 {
		return 0
	}
	if g.ProgressPercentage > 100 {
		return 100
	}
	return g.ProgressPercentage
}
