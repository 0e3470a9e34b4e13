package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	reportsHourWindow = time.Hour
	reportsDayWindow  = 24 * time.Hour
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter bounds report submissions per user across an hourly and a daily
// fixed window. A zero limit disables the corresponding window.
type Limiter struct {
	store   WindowStore
	perHour int
	perDay  int
}

func NewLimiter(store WindowStore, perHour, perDay int) *Limiter {
	if perHour < 0 {
		perHour = 0
	}
	if perDay < 0 {
		perDay = 0
	}

	return &Limiter{
		store:   store,
		perHour: perHour,
		perDay:  perDay,
	}
}

func (l *Limiter) AllowReport(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perHour > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, hourKey(userID), reportsHourWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perHour) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.perDay > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, dayKey(userID), reportsDayWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perDay) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

func (l *Limiter) RetryAfterReport(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perHour > 0 {
		count, ttl, err := l.store.WindowState(ctx, hourKey(userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(l.perHour) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.perDay > 0 {
		count, ttl, err := l.store.WindowState(ctx, dayKey(userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(l.perDay) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

func hourKey(userID int64) string {
	return "rate:reports:hour:" + strconv.FormatInt(userID, 10)
}

func dayKey(userID int64) string {
	return "rate:reports:day:" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
