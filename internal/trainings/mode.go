package trainings

import "fmt"

// Mode is how a training session is being tracked: set by set, or all
// sets filled in at once. It is never stored, always re-derived from the
// exercise data, so it cannot drift from the sets actually logged.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeBulk   Mode = "bulk"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNormal, ModeBulk:
		return Mode(s), nil
	}
	return ModeNormal, fmt.Errorf("unknown workout mode %q", s)
}

// ResolveMode classifies a training's tracking mode, first match wins:
//  1. completed trainings are reviewed per set
//  2. a partially filled exercise means the trainee logs incrementally
//  3. any fully filled exercise (none partial) means sets were entered
//     together; a training with one exercise done and another untouched
//     lands here too and counts as bulk
//  4. untouched training: the trainee's preference, normal when unset
func ResolveMode(t Training, preferred Mode) Mode {
	if t.IsCompleted {
		return ModeNormal
	}

	anyStarted := false
	for _, e := range t.Exercises {
		if e.Partial() {
			return ModeNormal
		}
		if !e.Empty() {
			anyStarted = true
		}
	}
	if anyStarted {
		return ModeBulk
	}

	if preferred == "" {
		return ModeNormal
	}
	return preferred
}
