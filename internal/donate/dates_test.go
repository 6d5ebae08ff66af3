package donate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddCalendarMonth(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{name: "mid-month", from: day(2025, time.March, 15), want: day(2025, time.April, 15)},
		{name: "first of month", from: day(2025, time.June, 1), want: day(2025, time.July, 1)},
		{name: "jan 31 clamps to feb 28", from: day(2025, time.January, 31), want: day(2025, time.February, 28)},
		{name: "jan 31 clamps to feb 29 in leap year", from: day(2024, time.January, 31), want: day(2024, time.February, 29)},
		{name: "aug 31 clamps to sep 30", from: day(2025, time.August, 31), want: day(2025, time.September, 30)},
		{name: "dec rolls into next year", from: day(2025, time.December, 15), want: day(2026, time.January, 15)},
		{name: "feb 28 keeps its day", from: day(2025, time.February, 28), want: day(2025, time.March, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addCalendarMonth(tt.from)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestAddCalendarMonthDropsTimeOfDay(t *testing.T) {
	from := time.Date(2025, time.May, 10, 17, 45, 30, 0, time.UTC)
	got := addCalendarMonth(from)
	assert.Equal(t, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), got)
}
