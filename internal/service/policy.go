package service

import "time"

// RetryPolicy decides when a failed, non-terminal item becomes eligible for
// another delivery attempt. The two processors genuinely differ here, so the
// policies stay distinct instead of sharing one generic retry function.
type RetryPolicy interface {
	NextAttempt(now time.Time) time.Time
}

// ImmediateRetryPolicy keeps the item eligible right away, so it is simply
// re-evaluated on the next periodic tick. Used by the scheduled-message
// processor.
type ImmediateRetryPolicy struct{}

func (ImmediateRetryPolicy) NextAttempt(now time.Time) time.Time { return now }

// FixedWindowBackoffPolicy pushes the next attempt a fixed window into the
// future. Used by the drip queue processor (5 minutes).
type FixedWindowBackoffPolicy struct {
	Window time.Duration
}

func (p FixedWindowBackoffPolicy) NextAttempt(now time.Time) time.Time { return now.Add(p.Window) }
