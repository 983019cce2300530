package prefs

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/trainings"
)

const workoutModeKeyPrefix = "workout-mode||"

// Store keeps per-trainee UI preferences in redis. Losing them is
// harmless, everything here has a sane default.
type Store struct {
	redisClient *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		redisClient: redisClient,
	}
}

// WorkoutMode is the preferred tracking mode for untouched trainings.
// No stored preference means normal.
func (s *Store) WorkoutMode(ctx context.Context, traineeID string) (trainings.Mode, error) {
	cmd := s.redisClient.Get(ctx, workoutModeKeyPrefix+traineeID)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return trainings.ModeNormal, nil
		}
		return trainings.ModeNormal, err
	}

	mode, err := trainings.ParseMode(cmd.Val())
	if err != nil {
		// a garbled stored value behaves like no preference
		log.Warnf("stored workout mode for %s: %s", traineeID, err)
		return trainings.ModeNormal, nil
	}

	return mode, nil
}

func (s *Store) SetWorkoutMode(ctx context.Context, traineeID string, mode trainings.Mode) error {
	cmd := s.redisClient.Set(ctx, workoutModeKeyPrefix+traineeID, string(mode), 0)
	return cmd.Err()
}
