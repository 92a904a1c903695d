package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limiter is a fixed-window request counter per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time

	requestsPerWindow int
	window            time.Duration
	idleTimeout       time.Duration
}

type clientInfo struct {
	windowStart time.Time
	lastRequest time.Time
	requests    int
}

type Config struct {
	RequestsPerWindow int
	Window            time.Duration
	// IdleTimeout is how long an untouched client entry is kept.
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 60,
		Window:            time.Minute,
		IdleTimeout:       10 * time.Minute,
	}
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerWindow <= 0 {
		config.RequestsPerWindow = def.RequestsPerWindow
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = def.IdleTimeout
	}
	return &Limiter{
		clients:           make(map[string]*clientInfo),
		now:               time.Now,
		requestsPerWindow: config.RequestsPerWindow,
		window:            config.Window,
		idleTimeout:       config.IdleTimeout,
	}
}

// Allow counts one request for key and reports whether it is within the limit.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[key]
	if !ok || now.Sub(client.windowStart) >= rl.window {
		rl.clients[key] = &clientInfo{windowStart: now, lastRequest: now, requests: 1}
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= rl.requestsPerWindow
}

// CleanExpired drops idle clients and returns how many were removed.
// It satisfies cache.Cleaner so the process janitor can sweep it.
func (rl *Limiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTimeout)
	removed := 0
	for key, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware limits state-changing requests only; reads pass through.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if !rl.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
