package utils

import (
	"strings"
	"time"

	"travelfinance/internal/domain"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// ParseDate parses YYYY-MM-DD in local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.Local)
}

// ParseDateTime parses "YYYY-MM-DD HH:MM:SS" in local timezone.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDateTime, strings.TrimSpace(s), time.Local)
}

// ParseWindow reads a start/end date pair. A missing bound defaults to the
// first or last day of the month containing now.
func ParseWindow(start, end string, now time.Time) (domain.Window, error) {
	y, m, _ := now.In(time.Local).Date()
	w := domain.Window{
		Start: time.Date(y, m, 1, 0, 0, 0, 0, time.Local),
		End:   time.Date(y, m+1, 0, 0, 0, 0, 0, time.Local),
	}
	if strings.TrimSpace(start) != "" {
		t, err := ParseDate(start)
		if err != nil {
			return domain.Window{}, domain.ValidationError{Field: "start_date", Msg: "expected YYYY-MM-DD", Err: err}
		}
		w.Start = t
	}
	if strings.TrimSpace(end) != "" {
		t, err := ParseDate(end)
		if err != nil {
			return domain.Window{}, domain.ValidationError{Field: "end_date", Msg: "expected YYYY-MM-DD", Err: err}
		}
		w.End = t
	}
	if !w.Valid() {
		return domain.Window{}, domain.ValidationError{Field: "end_date", Msg: "must not be before start_date"}
	}
	return w, nil
}
