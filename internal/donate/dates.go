package donate

import "time"

// addCalendarMonth returns the date one calendar month after t, at midnight
// in t's location. When the source day does not exist in the target month it
// is clamped to the month's last day (Jan 31 -> Feb 28, or Feb 29 in a leap
// year). time.AddDate would normalize Jan 31 into early March instead.
func addCalendarMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, t.Location())
}
