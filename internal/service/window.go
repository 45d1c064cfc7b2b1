package service

import "time"

// Weekdays returns the count most recent weekdays (Monday through Friday)
// ending at or before end, in chronological order. Dates are naive calendar
// days normalized to midnight UTC; the walk is pure calendar arithmetic, so
// fixed inputs always produce the same window.
func Weekdays(end time.Time, count int) []time.Time {
	if count <= 0 {
		return nil
	}
	day := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, count)
	for len(dates) < count {
		wd := day.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, day)
		}
		day = day.AddDate(0, 0, -1)
	}
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates
}
