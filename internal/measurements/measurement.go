package measurements

import (
	"fmt"
	"time"
)

// Measurement is one day's body measurement. At most one exists per
// trainee per calendar day, a later write for the same day replaces it.
type Measurement struct {
	TraineeID string             `json:"traineeId"`
	Date      time.Time          `json:"date"`
	Weight    float64            `json:"weight"`
	Body      map[string]float64 `json:"body,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

var bodyDimensions = map[string]struct{}{
	"waist": {},
	"chest": {},
	"arms":  {},
	"hips":  {},
}

func ValidBodyDimension(name string) bool {
	_, ok := bodyDimensions[name]
	return ok
}

func validateBody(body map[string]float64) error {
	for name, value := range body {
		if !ValidBodyDimension(name) {
			return fmt.Errorf("unknown body dimension %q", name)
		}
		if value <= 0 {
			return fmt.Errorf("body dimension %q must be positive", name)
		}
	}
	return nil
}
