package pkg

import "time"

// FormatDay renders a calendar day relative to now: the current day becomes
// "Today", the day before "Yesterday", anything else ISO YYYY-MM-DD.
func FormatDay(t, now time.Time) string {
	if SameDay(t, now) {
		return "Today"
	}
	if SameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return t.Format("2006-01-02")
}

// StartOfWeek returns the Monday 00:00:00 of the week the given time falls in,
// weeks running Monday through Sunday.
func StartOfWeek(t time.Time) time.Time {
	offset := int(time.Monday - t.Weekday())
	if offset > 0 {
		offset = -6
	}
	monday := t.AddDate(0, 0, offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// DayOf truncates a time to its calendar day, keeping the location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
