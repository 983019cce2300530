package progress

import (
	"fmt"
	"sort"
	"time"

	"github.com/traintrack/traintrack/internal/measurements"
	"github.com/traintrack/traintrack/internal/trainings"
	"github.com/traintrack/traintrack/pkg"
)

// SetsProgress counts logged sets against target sets across a whole
// training.
func SetsProgress(t trainings.Training) (completed, total int) {
	for _, e := range t.Exercises {
		completed += len(e.ActualSets)
		total += e.Sets
	}
	return completed, total
}

// Ratio is the completion ratio in 0..1. A training with no target
// sets is simply at zero, never a division error.
func Ratio(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

// FormatSets renders "5/6 sets".
func FormatSets(completed, total int) string {
	return fmt.Sprintf("%d/%d sets", completed, total)
}

// FormatPercent renders a 0..1 ratio as "83%".
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// WeeklyAverages are mean measurement values over the running week.
// Body holds only the dimensions that appeared in at least one entry.
type WeeklyAverages struct {
	Weight float64            `json:"weight"`
	Body   map[string]float64 `json:"body,omitempty"`
	Count  int                `json:"count"`
}

// WeeklyAverage averages the entries falling into Monday through today
// of now's week. Days outside the window, last Sunday included, do not
// count. ok is false when no entry falls in the window.
func WeeklyAverage(entries []measurements.Measurement, now time.Time) (_ WeeklyAverages, ok bool) {
	monday := pkg.StartOfWeek(now)
	endExclusive := pkg.DayOf(now).AddDate(0, 0, 1)

	var weightSum float64
	count := 0
	bodySums := make(map[string]float64)
	bodyCounts := make(map[string]int)

	for _, m := range entries {
		day := pkg.DayOf(m.Date)
		if day.Before(monday) || !day.Before(endExclusive) {
			continue
		}
		weightSum += m.Weight
		count++
		for dim, v := range m.Body {
			bodySums[dim] += v
			bodyCounts[dim]++
		}
	}

	if count == 0 {
		return WeeklyAverages{}, false
	}

	averages := WeeklyAverages{
		Weight: weightSum / float64(count),
		Count:  count,
	}
	if len(bodySums) > 0 {
		averages.Body = make(map[string]float64, len(bodySums))
		for dim, sum := range bodySums {
			averages.Body[dim] = sum / float64(bodyCounts[dim])
		}
	}

	return averages, true
}

// CalorieSummary is the day's intake against the configured target.
type CalorieSummary struct {
	Target    int `json:"target"`
	Consumed  int `json:"consumed"`
	Remaining int `json:"remaining"`
}

// CalorieDelta reports target minus consumed, negative once the target
// is exceeded.
func CalorieDelta(target, consumed int) CalorieSummary {
	return CalorieSummary{
		Target:    target,
		Consumed:  consumed,
		Remaining: target - consumed,
	}
}

// MeasurementDelta pairs a measurement with its weight change against
// the chronologically previous entry.
type MeasurementDelta struct {
	measurements.Measurement
	WeightDelta *float64 `json:"weightDelta,omitempty"`
}

// DeltaVsPrevious computes per-entry weight changes. Previous means
// previous by measurement date, whatever order the entries came in.
// The oldest entry has no delta. Output is newest first for display.
func DeltaVsPrevious(entries []measurements.Measurement) []MeasurementDelta {
	byDate := make([]measurements.Measurement, len(entries))
	copy(byDate, entries)
	sort.Slice(byDate, func(i, j int) bool {
		return byDate[i].Date.Before(byDate[j].Date)
	})

	deltas := make([]MeasurementDelta, len(byDate))
	for i := range byDate {
		md := MeasurementDelta{Measurement: byDate[i]}
		if i > 0 {
			d := byDate[i].Weight - byDate[i-1].Weight
			md.WeightDelta = &d
		}
		deltas[i] = md
	}

	// newest first
	for i, j := 0, len(deltas)-1; i < j; i, j = i+1, j-1 {
		deltas[i], deltas[j] = deltas[j], deltas[i]
	}

	return deltas
}
