// Package ratelimit provides token bucket rate limiting for MCP tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limit describes one token bucket.
type Limit struct {
	PerMinute float64 // sustained refill rate
	Burst     int     // bucket capacity and initial token count
}

// Limiter is a single token bucket. It is safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	limit     Limit
	tokens    float64
	lastCheck time.Time
	nowFunc   func() time.Time // injectable clock for testing
}

// NewLimiter creates a full bucket for limit.
func NewLimiter(limit Limit) *Limiter {
	return &Limiter{
		limit:     limit,
		tokens:    float64(limit.Burst),
		lastCheck: time.Now(),
		nowFunc:   time.Now,
	}
}

// Allow takes one token if available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	if elapsed := now.Sub(l.lastCheck).Minutes(); elapsed > 0 {
		l.tokens = min(l.tokens+l.limit.PerMinute*elapsed, float64(l.limit.Burst))
		l.lastCheck = now
	}

	if l.tokens < 1.0 {
		return false
	}
	l.tokens--
	return true
}

// ToolLimiters holds one bucket per tool name.
type ToolLimiters map[string]*Limiter

// NewToolLimiters builds a bucket for every entry in limits.
func NewToolLimiters(limits map[string]Limit) ToolLimiters {
	tl := make(ToolLimiters, len(limits))
	for name, limit := range limits {
		tl[name] = NewLimiter(limit)
	}
	return tl
}

// Check returns an error when tool has exhausted its bucket.
// Tools without a configured limit are never limited.
func (tl ToolLimiters) Check(tool string) error {
	limiter, ok := tl[tool]
	if !ok {
		return nil
	}
	if !limiter.Allow() {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", tool)
	}
	return nil
}
