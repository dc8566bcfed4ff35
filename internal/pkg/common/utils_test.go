package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStart(t *testing.T) {
	// 2026-08-26 是週三
	wed := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
	start := WeekStart(wed)

	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), start)

	// 週日本身就是起點
	sun := time.Date(2026, 8, 23, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), WeekStart(sun))

	// 同一週內任何一天都對齊到同一個起點
	for d := 0; d < 7; d++ {
		day := time.Date(2026, 8, 23+d, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, start, WeekStart(day))
	}
}

func TestGenerateUUID(t *testing.T) {
	a := GenerateUUID()
	b := GenerateUUID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
