package common

import (
	"time"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WeekStart 回傳該日期所屬週的週日 00:00，當作餐期計畫的起始日
func WeekStart(t time.Time) time.Time {
	d := t.AddDate(0, 0, -int(t.Weekday()))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
