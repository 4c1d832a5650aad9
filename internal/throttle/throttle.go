// Package throttle bounds how many submissions one caller may make in a
// fixed window. Submissions drive paid model calls, so the limit guards AI
// spend rather than server capacity.
package throttle

import (
	"context"
	"time"
)

// Result describes the caller's window after counting the current request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window resets, at
// least one.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter counts one attempt for key and reports whether it fits the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func result(count int64, limit int, resetAt time.Time) Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// windowStart aligns now to the fixed window grid.
func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}
