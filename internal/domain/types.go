package domain

import "time"

// Window is an inclusive reporting period over event dates.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls on or between the window's days.
func (w Window) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(truncateDay(w.Start)) && !day.After(truncateDay(w.End))
}

// Valid reports whether the window is well formed.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !truncateDay(w.End).Before(truncateDay(w.Start))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
