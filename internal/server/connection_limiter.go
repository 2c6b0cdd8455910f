package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for the WebSocket feed. The per-IP limit comes from config
// (MAX_CLIENTS_PER_USER) since clients of one employee usually share an IP.
const (
	defaultGlobalConnLimit = 10000
	defaultConnRate        = 10.0 // new connections per second per IP
	defaultConnBurst       = 10
)

// LimitReason describes why a connection was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// ConnectionLimits guards the WebSocket endpoint with three layers:
// a global cap per instance, a concurrent cap per IP, and a token-bucket
// rate on new connections per IP.
type ConnectionLimits struct {
	global atomic.Int64
	max    int64
	perIP  *ipLimiter
	rate   *connRateLimiter
}

func NewConnectionLimits(globalMax int64, perIPMax int, connectionsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		max:   globalMax,
		perIP: newIPLimiter(perIPMax),
		rate:  newConnRateLimiter(connectionsPerSecond, burst),
	}
}

// Acquire claims a connection slot for the given IP. On rejection the
// returned reason names the exhausted limit.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	if !l.rate.allow(ip) {
		return false, LimitReasonRate
	}

	if !l.acquireGlobal() {
		return false, LimitReasonGlobal
	}

	if !l.perIP.acquire(ip) {
		l.global.Add(-1)
		return false, LimitReasonPerIP
	}

	return true, ""
}

// Release returns the slots claimed by Acquire.
func (l *ConnectionLimits) Release(ip string) {
	l.perIP.release(ip)
	l.global.Add(-1)
}

// Current returns the number of connections held on this instance.
func (l *ConnectionLimits) Current() int64 {
	return l.global.Load()
}

func (l *ConnectionLimits) acquireGlobal() bool {
	for {
		current := l.global.Load()
		if current >= l.max {
			return false
		}
		if l.global.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// ipLimiter caps concurrent connections per IP address.
type ipLimiter struct {
	mu     sync.Mutex
	ips    map[string]int
	maxPer int
}

func newIPLimiter(maxPer int) *ipLimiter {
	return &ipLimiter{ips: make(map[string]int), maxPer: maxPer}
}

func (l *ipLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ips[ip] >= l.maxPer {
		return false
	}
	l.ips[ip]++
	return true
}

func (l *ipLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if count := l.ips[ip]; count > 0 {
		l.ips[ip] = count - 1
		if l.ips[ip] == 0 {
			delete(l.ips, ip)
		}
	}
}

// connRateLimiter applies a token bucket per IP to new connections.
// Idle buckets are evicted periodically to bound memory.
type connRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	rateLimiterCleanupEvery = 5 * time.Minute
	rateLimiterIdleTTL      = 10 * time.Minute
)

func newConnRateLimiter(connectionsPerSecond float64, burst int) *connRateLimiter {
	return &connRateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Limit(connectionsPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(rateLimiterCleanupEvery),
	}
}

func (l *connRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(rateLimiterCleanupEvery)
	}

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}

	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup must be called with mu held.
func (l *connRateLimiter) cleanup() {
	cutoff := time.Now().Add(-rateLimiterIdleTTL)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}
