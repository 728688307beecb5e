package yolink

import (
	"sync"
	"time"
)

// RateLimiter paces outbound API calls with a simple token bucket. The
// YoLink open API rate-limits aggressive clients (code 010301); pacing on
// our side keeps bulk operations such as a device sync under the limit.
type RateLimiter struct {
	mu     sync.Mutex
	rate   float64 // calls per second
	tokens float64
	last   time.Time
}

// NewRateLimiter returns a limiter allowing callsPerSecond sustained calls.
// A non-positive rate returns nil, which callers treat as "no pacing".
func NewRateLimiter(callsPerSecond float64) *RateLimiter {
	if callsPerSecond <= 0 {
		return nil
	}
	return &RateLimiter{rate: callsPerSecond, tokens: 1, last: time.Now()}
}

// Wait blocks until one call may proceed.
func (rl *RateLimiter) Wait() {
	if rl == nil {
		return
	}
	for {
		rl.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(rl.last).Seconds()
		if elapsed > 0 {
			rl.tokens += elapsed * rl.rate
			// The bucket must always be able to hold the one token Wait
			// consumes, or fractional rates could never unblock.
			burst := rl.rate
			if burst < 1 {
				burst = 1
			}
			if rl.tokens > burst {
				rl.tokens = burst
			}
			rl.last = now
		}
		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return
		}
		deficit := 1 - rl.tokens
		rl.mu.Unlock()
		time.Sleep(time.Duration(deficit / rl.rate * float64(time.Second)))
	}
}
