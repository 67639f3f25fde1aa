package utils

import "time"

// startOfWeek returns midnight of the Sunday that starts t's week, in t's location.
func startOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// SundayWeek returns the week-numbering year and week number of t.
// Weeks start on Sunday and week 1 is the week containing January 1.
// Dates in the last days of December can therefore belong to week 1 of the next year.
func SundayWeek(t time.Time) (year int, week int) {
	sow := startOfWeek(t)
	year = t.Year()

	nextFirst := startOfWeek(time.Date(year+1, time.January, 1, 0, 0, 0, 0, t.Location()))
	if !sow.Before(nextFirst) {
		return year + 1, 1
	}

	first := startOfWeek(time.Date(year, time.January, 1, 0, 0, 0, 0, t.Location()))
	days := int(sow.Sub(first).Hours()+12) / 24 // rounding absorbs DST shifts

	return year, days/7 + 1
}
