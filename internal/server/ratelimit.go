package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter tracks per-client request counts in fixed minute, hour and day
// windows plus a daily upload quota.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int
	maxRequestsPerDay int
	maxDataPerDay     int64 // bytes

	now     func() time.Time
	clients map[string]*ClientUsage
}

// ClientUsage is the usage of one client in the current windows.
type ClientUsage struct {
	Minute      int
	Hour        int
	Day         int
	DataToday   int64
	minuteStart time.Time
	hourStart   time.Time
	dayStart    time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits.
func NewRateLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxDataPerDay:     maxDataPerDay,
		now:               time.Now,
		clients:           make(map[string]*ClientUsage),
	}
}

// CheckRateLimit records a request of dataSize bytes from clientID, or returns
// a *RateLimitError or *QuotaExceededError without recording it.
func (rl *RateLimiter) CheckRateLimit(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u, ok := rl.clients[clientID]
	if !ok {
		u = &ClientUsage{}
		rl.clients[clientID] = u
	}
	u.roll(now)

	if rl.requestsPerMinute > 0 && u.Minute >= rl.requestsPerMinute {
		return &RateLimitError{Type: "minute", Limit: rl.requestsPerMinute, RetryAfter: u.minuteStart.Add(time.Minute).Sub(now)}
	}
	if rl.requestsPerHour > 0 && u.Hour >= rl.requestsPerHour {
		return &RateLimitError{Type: "hour", Limit: rl.requestsPerHour, RetryAfter: u.hourStart.Add(time.Hour).Sub(now)}
	}

	resets := u.dayStart.AddDate(0, 0, 1)
	if rl.maxRequestsPerDay > 0 && u.Day >= rl.maxRequestsPerDay {
		return &QuotaExceededError{Type: "requests", Limit: int64(rl.maxRequestsPerDay), Used: int64(u.Day), Resets: resets}
	}
	if rl.maxDataPerDay > 0 && u.DataToday+dataSize > rl.maxDataPerDay {
		return &QuotaExceededError{Type: "data", Limit: rl.maxDataPerDay, Used: u.DataToday, Resets: resets}
	}

	u.Minute++
	u.Hour++
	u.Day++
	u.DataToday += dataSize
	return nil
}

// roll starts new windows once the current ones have elapsed. Days start at
// local midnight.
func (u *ClientUsage) roll(now time.Time) {
	if now.Sub(u.minuteStart) >= time.Minute {
		u.minuteStart, u.Minute = now, 0
	}
	if now.Sub(u.hourStart) >= time.Hour {
		u.hourStart, u.Hour = now, 0
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !u.dayStart.Equal(midnight) {
		u.dayStart, u.Day, u.DataToday = midnight, 0, 0
	}
}

// Usage returns a copy of the current usage of clientID.
func (rl *RateLimiter) Usage(clientID string) ClientUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if u, ok := rl.clients[clientID]; ok {
		return *u
	}
	return ClientUsage{}
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter.Round(time.Second))
}

// QuotaExceededError represents a daily quota violation.
type QuotaExceededError struct {
	Type   string    // "requests" or "data"
	Limit  int64     // the limit that was exceeded
	Used   int64     // current usage
	Resets time.Time // when the quota resets
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
