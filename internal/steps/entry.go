package steps

import (
	"time"
)

// Origin tells how a steps entry got in. Manual entries outrank synced
// ones and a sync never overwrites them.
type Origin string

const (
	OriginManual     Origin = "manual"
	OriginHealthSync Origin = "health-sync"
)

// Entry is the step count for a trainee on one day.
type Entry struct {
	ID        int       `json:"id"`
	TraineeID string    `json:"traineeId"`
	Date      time.Time `json:"date"`
	Steps     int       `json:"steps"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"createdAt"`
}
