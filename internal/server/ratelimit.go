package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter throttles sheet uploads per client address.
type RateLimiter struct {
	mu sync.RWMutex

	// Request rate limiting
	requestsPerMinute int
	requestsPerHour   int

	// Daily quotas
	maxRequestsPerDay int
	maxDataPerDay     int64 // in bytes

	// Usage tracking keyed by client address
	clients map[string]*ClientUsage
}

// ClientUsage tracks upload activity for one client.
type ClientUsage struct {
	// Request counts
	requestsLastMinute int
	requestsLastHour   int
	requestsToday      int

	// Data usage
	dataToday int64 // bytes uploaded today

	// Timestamps
	lastRequestTime time.Time
	dayStartTime    time.Time
}

// NewRateLimiter creates a rate limiter with the given limits. A limit of
// zero disables that check.
func NewRateLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*ClientUsage),
	}
}

// CheckRateLimit checks whether an upload of dataSize bytes from the given
// client is allowed and records it when it is.
func (rl *RateLimiter) CheckRateLimit(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	usage := rl.getOrCreateClientUsage(clientID, now)

	rl.resetCountersIfNeeded(usage, now)

	if err := rl.checkRateLimits(usage, now); err != nil {
		return err
	}

	if err := rl.checkDailyQuotas(usage, dataSize, now); err != nil {
		return err
	}

	rl.updateUsageCounters(usage, dataSize, now)

	return nil
}

// resetCountersIfNeeded resets usage counters when time periods change.
func (rl *RateLimiter) resetCountersIfNeeded(usage *ClientUsage, now time.Time) {
	// Reset counters if the day has changed
	if now.Day() != usage.dayStartTime.Day() || now.Month() != usage.dayStartTime.Month() {
		usage.requestsToday = 0
		usage.dataToday = 0
		usage.dayStartTime = now
	}

	// Reset minute/hour counters if needed
	if now.Sub(usage.lastRequestTime) >= time.Minute {
		usage.requestsLastMinute = 0
	}
	if now.Sub(usage.lastRequestTime) >= time.Hour {
		usage.requestsLastHour = 0
	}
}

// checkRateLimits checks minute and hour rate limits.
func (rl *RateLimiter) checkRateLimits(usage *ClientUsage, now time.Time) error {
	if rl.requestsPerMinute > 0 && usage.requestsLastMinute >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      rl.requestsPerMinute,
			RetryAfter: time.Minute - now.Sub(usage.lastRequestTime),
		}
	}

	if rl.requestsPerHour > 0 && usage.requestsLastHour >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      rl.requestsPerHour,
			RetryAfter: time.Hour - now.Sub(usage.lastRequestTime),
		}
	}

	return nil
}

// checkDailyQuotas checks daily request and data quotas.
func (rl *RateLimiter) checkDailyQuotas(usage *ClientUsage, dataSize int64, now time.Time) error {
	if rl.maxRequestsPerDay > 0 && usage.requestsToday >= rl.maxRequestsPerDay {
		return &QuotaExceededError{
			Type:   "requests",
			Limit:  int64(rl.maxRequestsPerDay),
			Used:   int64(usage.requestsToday),
			Resets: time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location()),
		}
	}

	if rl.maxDataPerDay > 0 && usage.dataToday+dataSize > rl.maxDataPerDay {
		return &QuotaExceededError{
			Type:   "data",
			Limit:  rl.maxDataPerDay,
			Used:   usage.dataToday,
			Resets: time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location()),
		}
	}

	return nil
}

// updateUsageCounters increments usage counters after an allowed request.
func (rl *RateLimiter) updateUsageCounters(usage *ClientUsage, dataSize int64, now time.Time) {
	usage.requestsLastMinute++
	usage.requestsLastHour++
	usage.requestsToday++
	usage.dataToday += dataSize
	usage.lastRequestTime = now
}

// getOrCreateClientUsage gets or creates usage tracking for a client.
func (rl *RateLimiter) getOrCreateClientUsage(clientID string, now time.Time) *ClientUsage {
	usage, exists := rl.clients[clientID]
	if !exists {
		usage = &ClientUsage{
			lastRequestTime: now,
			dayStartTime:    now,
		}
		rl.clients[clientID] = usage
	}
	return usage
}

// GetUsage returns current usage statistics for a client.
func (rl *RateLimiter) GetUsage(clientID string) *ClientUsage {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if usage, exists := rl.clients[clientID]; exists {
		// Return a copy to avoid race conditions
		return &ClientUsage{
			requestsLastMinute: usage.requestsLastMinute,
			requestsLastHour:   usage.requestsLastHour,
			requestsToday:      usage.requestsToday,
			dataToday:          usage.dataToday,
			lastRequestTime:    usage.lastRequestTime,
			dayStartTime:       usage.dayStartTime,
		}
	}
	return &ClientUsage{}
}

// RateLimitError reports a minute or hour rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError reports a daily request or data quota violation.
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
