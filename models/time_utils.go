package models

import "time"

// DateLayout is the only resolve-by format the Fatebook API accepts.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date. Past dates are allowed.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// FormatDate renders a date the way createQuestion expects it.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
