package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a basic token bucket with time-based refill.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available and reports the wait time
// until the next token otherwise.
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed/tb.refillTime) * tb.refillRate

	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	nextRefill := tb.lastRefill.Add(tb.refillTime)
	return false, nextRefill.Sub(now)
}

// ConnectionLimiter throttles WebSocket connection attempts per remote
// address so a misbehaving client cannot churn the upgrade path.
type ConnectionLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex
}

func NewConnectionLimiter() *ConnectionLimiter {
	return &ConnectionLimiter{
		buckets: make(map[string]*TokenBucket),
	}
}

func (cl *ConnectionLimiter) Allow(remoteAddr string) (bool, time.Duration) {
	cl.mutex.RLock()
	bucket, exists := cl.buckets[remoteAddr]
	cl.mutex.RUnlock()

	if !exists {
		cl.mutex.Lock()
		if bucket, exists = cl.buckets[remoteAddr]; !exists {
			// 10 connection attempts, refilling one every 6 seconds
			bucket = NewTokenBucket(10, 1, 6*time.Second)
			cl.buckets[remoteAddr] = bucket
		}
		cl.mutex.Unlock()
	}

	return bucket.Allow()
}

// Cleanup removes buckets that haven't been used recently. Recreated
// buckets start full, so forgetting one never grants extra attempts.
func (cl *ConnectionLimiter) Cleanup() {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	now := time.Now()
	for addr, bucket := range cl.buckets {
		bucket.mutex.Lock()
		idle := now.Sub(bucket.lastRefill) > time.Hour
		bucket.mutex.Unlock()
		if idle {
			delete(cl.buckets, addr)
		}
	}
}

// StartCleanupRoutine drops idle buckets periodically so the map does not
// grow without bound.
func (cl *ConnectionLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cl.Cleanup()
		}
	}()
}
