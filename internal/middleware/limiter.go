package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"odil-be/internal/metrics"
	"odil-be/internal/utils"

	"golang.org/x/time/rate"
)

// Tier is one request quota.
type Tier struct {
	Name  string
	Limit rate.Limit
	Burst int
}

var (
	// Owner login and order submission.
	TierStrict  = Tier{Name: "strict", Limit: 2, Burst: 5}
	// Signed-in owner editing the catalogue.
	TierOwner   = Tier{Name: "owner", Limit: 20, Burst: 40}
	TierGeneral = Tier{Name: "general", Limit: 10, Burst: 20}
)

const visitorIdle = 3 * time.Minute

var strictPaths = map[string]struct{}{
	"/owner/login": {},
	"/cart/submit": {},
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller and tier.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	refused  *metrics.Counter
	now      func() time.Time
}

func NewRateLimiter(reg *metrics.Registry) *RateLimiter {
	if reg == nil {
		reg = metrics.Default
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		refused:  reg.Counter(metrics.RateLimitedRequests),
		now:      time.Now,
	}
}

// Middleware refuses requests over the caller's quota with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := tierOf(r)
		// separate quotas per tier, e.g. "session:abc:strict"
		key := identityOf(r) + ":" + tier.Name

		if !l.limiter(key, tier).Allow() {
			l.refused.Inc()
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) limiter(key string, tier Tier) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(tier.Limit, tier.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Sweep forgets callers idle for longer than maxIdle and returns how many.
func (l *RateLimiter) Sweep(maxIdle time.Duration) int {
	cutoff := l.now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			n++
		}
	}
	return n
}

// Run sweeps idle callers every minute until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(visitorIdle)
		}
	}
}

func tierOf(r *http.Request) Tier {
	if _, ok := strictPaths[r.URL.Path]; ok {
		return TierStrict
	}
	if utils.GetRoleFromContext(r.Context()) == utils.RoleOwner {
		return TierOwner
	}
	return TierGeneral
}

// identityOf prefers the owner, then the cart session, then the client IP.
func identityOf(r *http.Request) string {
	if owner, ok := utils.GetOwnerFromContext(r.Context()); ok {
		return "owner:" + owner
	}
	if sessionID := r.Header.Get(utils.SessionHeader); sessionID != "" {
		return "session:" + sessionID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
