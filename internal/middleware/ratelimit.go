// ratelimit.go provides Gin middleware that enforces fixed-window rate limits
// keyed by caller identity and endpoint class, returning 429 responses with
// remaining-budget headers when a class budget is exhausted.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/council-portal/council-portal/internal/config"
	"github.com/council-portal/council-portal/internal/safego"
	"github.com/council-portal/council-portal/internal/telemetry"
)

// Class labels an endpoint's rate-limit budget. Handlers pick the class per
// route; it is never inferred from the request.
type Class string

const (
	ClassDefault Class = "default"
	ClassAuth    Class = "auth"
	ClassCreate  Class = "create"
	ClassUpload  Class = "upload"
	ClassAdmin   Class = "admin"
	ClassRead    Class = "read"
)

// Budget is a class ceiling: at most MaxRequests hits per fixed Window.
type Budget struct {
	MaxRequests int
	Window      time.Duration
}

// defaultBudgets returns the built-in per-class budgets. Config can override
// any class; unknown classes fall back to ClassDefault.
func defaultBudgets() map[Class]Budget {
	return map[Class]Budget{
		ClassDefault: {MaxRequests: 100, Window: 15 * time.Minute},
		ClassAuth:    {MaxRequests: 5, Window: 15 * time.Minute},
		ClassCreate:  {MaxRequests: 10, Window: 5 * time.Minute},
		ClassUpload:  {MaxRequests: 5, Window: 10 * time.Minute},
		ClassAdmin:   {MaxRequests: 20, Window: 5 * time.Minute},
		ClassRead:    {MaxRequests: 50, Window: time.Minute},
	}
}

// classMessages are the user-facing 429 bodies per class.
var classMessages = map[Class]string{
	ClassDefault: "Too many requests, please try again later",
	ClassAuth:    "Too many authentication attempts, please try again later",
	ClassCreate:  "Too many create requests, please slow down",
	ClassUpload:  "Too many uploads, please slow down",
	ClassAdmin:   "Too many admin requests, please slow down",
	ClassRead:    "Too many requests, please slow down",
}

// Result is the outcome of a single counted hit against a key's window.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store is the counter backend. Hit must perform the read-check-increment as
// one atomic unit per key: two concurrent hits on the same key must never
// both observe "under limit" when only one slot remains.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a single-instance fixed-window counter store. Expired
// windows are reset lazily on the next hit; a background sweep purges keys
// that have gone quiet so the map does not grow without bound.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	stopCh  chan struct{}
	stopped sync.Once
}

// NewMemoryStore creates a memory store and starts its sweep goroutine.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*windowEntry),
		stopCh:  make(chan struct{}),
	}
	safego.Go(func() { s.sweep(sweepInterval) })
	return s
}

// Hit counts one request against key's current window.
func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, ok := s.entries[key]
	if !ok || now.After(entry.resetAt) {
		// Absent or expired: expired windows behave exactly like absent ones.
		entry = &windowEntry{resetAt: now.Add(window)}
		s.entries[key] = entry
	}

	entry.count++

	remaining := limit - entry.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   entry.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   entry.resetAt,
	}, nil
}

// sweep periodically drops expired windows. Correctness does not depend on
// it: Hit already treats expired entries as absent.
func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.resetAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

// Stop terminates the sweep goroutine.
func (s *MemoryStore) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
}

// ---------------------------------------------------------------------------
// Limiter
// ---------------------------------------------------------------------------

// RateLimiter checks per-identity, per-class budgets against a Store.
type RateLimiter struct {
	store   Store
	budgets map[Class]Budget
	enabled bool
}

// NewRateLimiter builds a limiter over store, merging any per-class
// overrides from cfg into the built-in budgets.
func NewRateLimiter(store Store, cfg config.RateLimitingConfig) *RateLimiter {
	budgets := defaultBudgets()
	for name, override := range cfg.Classes {
		class := Class(name)
		if _, known := budgets[class]; !known {
			continue
		}
		budget := budgets[class]
		if override.MaxRequests > 0 {
			budget.MaxRequests = override.MaxRequests
		}
		if override.Window > 0 {
			budget.Window = override.Window
		}
		budgets[class] = budget
	}
	return &RateLimiter{store: store, budgets: budgets, enabled: cfg.Enabled}
}

// Check counts one hit for the identity/class pair.
func (rl *RateLimiter) Check(ctx context.Context, identity string, class Class) (Result, error) {
	budget, ok := rl.budgets[class]
	if !ok {
		budget = rl.budgets[ClassDefault]
	}
	return rl.store.Hit(ctx, string(class)+":"+identity, budget.MaxRequests, budget.Window)
}

// RateLimitMiddleware returns a Gin handler enforcing the class budget.
//
// The counter check runs before token verification in the router chain, so
// the identity key is the authenticated user id when a prior middleware has
// already set it and the client IP otherwise. On rejection the response is
// 429 with the full budget header set; allowed requests carry the same
// headers so clients can pace themselves.
func RateLimitMiddleware(limiter *RateLimiter, class Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || !limiter.enabled {
			c.Next()
			return
		}

		result, err := limiter.Check(c.Request.Context(), rateLimitIdentity(c), class)
		if err != nil {
			// A broken counter store must not take the API down with it.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			telemetry.RateLimitRejectionsTotal.WithLabelValues(string(class)).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      classMessages[class],
				"type":       "RateLimitExceeded",
				"retryAfter": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// rateLimitIdentity resolves the counter key for a request. Authenticated
// user id wins; otherwise the client IP from gin's forwarding-header
// resolution, then the raw remote address.
func rateLimitIdentity(c *gin.Context) string {
	if userID, exists := c.Get(UserIDKey); exists {
		if id, ok := userID.(string); ok && id != "" {
			return "user:" + id
		}
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
