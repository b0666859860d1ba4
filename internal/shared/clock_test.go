package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowsUseUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 2025-01-31 22:00 at UTC-5 is already February 1st in UTC.
	now := time.Date(2025, 1, 31, 22, 0, 0, 0, loc)

	dayStart, dayEnd := DayWindow(now)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), dayStart)
	assert.Equal(t, time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC), dayEnd)

	monthStart, monthEnd := MonthWindow(now)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), monthStart)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), monthEnd)
}

func TestNewPageClamps(t *testing.T) {
	assert.Equal(t, Page{Skip: 0, Limit: 100}, NewPage(-3, 0))
	assert.Equal(t, Page{Skip: 10, Limit: 500}, NewPage(10, 9000))
	assert.Equal(t, Page{Skip: 5, Limit: 20}, NewPage(5, 20))
}
