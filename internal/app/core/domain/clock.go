package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Clock 提供「今天」的日期
// Account 本身不讀系統時間，日期一律由呼叫端傳入
type Clock interface {
	Today() civil.Date
}

// SystemClock 以指定時區的系統時間換算日期
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock loc 為 nil 時使用 UTC
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{Location: loc}
}

func (c SystemClock) Today() civil.Date {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(time.Now().In(loc))
}

// FixedClock 固定日期，測試用
type FixedClock civil.Date

func (c FixedClock) Today() civil.Date { return civil.Date(c) }
