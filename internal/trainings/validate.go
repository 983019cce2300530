package trainings

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrEmptyField    = errors.New("empty field")
	ErrInvalidReps   = errors.New("invalid reps")
	ErrInvalidWeight = errors.New("invalid weight")
	ErrOutOfOrderSet = errors.New("out of order set")
)

// ValidateSet checks one set entry as typed by the trainee and converts
// it into an ActualSet. Entry flows treat ErrEmptyField as "not entered
// yet" and skip the entry; the completion check is the strict side.
func ValidateSet(repsText, weightText string) (ActualSet, error) {
	repsText = strings.TrimSpace(repsText)
	weightText = strings.TrimSpace(weightText)

	if repsText == "" || weightText == "" {
		return ActualSet{}, ErrEmptyField
	}

	reps, err := strconv.Atoi(repsText)
	if err != nil || reps <= 0 {
		return ActualSet{}, ErrInvalidReps
	}

	weight, err := strconv.ParseFloat(weightText, 64)
	if err != nil || weight < 0 {
		return ActualSet{}, ErrInvalidWeight
	}

	return ActualSet{Reps: reps, Weight: weight}, nil
}

// validSet re-checks an already stored set. Stored sets are normally
// valid, but completion never trusts prior incremental saves.
func validSet(s ActualSet) error {
	if s.Reps <= 0 {
		return ErrInvalidReps
	}
	if s.Weight < 0 {
		return ErrInvalidWeight
	}
	return nil
}
