package web

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hpungsan/agenda/internal/config"
	"github.com/hpungsan/agenda/internal/errors"
)

// maxTrackedClients bounds the per-IP limiter table between sweeps.
const maxTrackedClients = 10000

// clientLimiter applies one "N per unit" limit to each client IP.
type clientLimiter struct {
	label string
	limit config.RateLimit
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientState
}

type clientState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(label string, limit config.RateLimit) *clientLimiter {
	return &clientLimiter{
		label:   label,
		limit:   limit,
		now:     time.Now,
		clients: make(map[string]*clientState),
	}
}

// allow reports whether ip may make another request now.
func (l *clientLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.sweep(now)
		}
		every := l.limit.Per / time.Duration(l.limit.Count)
		c = &clientState{limiter: rate.NewLimiter(rate.Every(every), l.limit.Count)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep drops clients idle long enough for their bucket to have refilled.
// Callers hold l.mu.
func (l *clientLimiter) sweep(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.limit.Per {
			delete(l.clients, ip)
		}
	}
}

// retryAfter is the whole number of seconds until one token refills.
func (l *clientLimiter) retryAfter() int {
	every := l.limit.Per / time.Duration(l.limit.Count)
	return int(math.Ceil(every.Seconds()))
}

// wrap rejects requests over the limit with 429 and a Retry-After header.
func (l *clientLimiter) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			writeError(w, errors.NewRateLimited(l.label))
			return
		}
		next(w, r)
	}
}

// clientIP returns the host part of the connection's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limiters holds the per-route limiters built from config.
type limiters struct {
	fallback *clientLimiter
	analyze  *clientLimiter
	export   *clientLimiter
}

func newLimiters(cfg *config.Config) (*limiters, error) {
	build := func(s string) (*clientLimiter, error) {
		limit, err := config.ParseRateLimit(s)
		if err != nil {
			return nil, err
		}
		return newClientLimiter(s, limit), nil
	}

	fallback, err := build(cfg.RateLimitDefault)
	if err != nil {
		return nil, err
	}
	analyze, err := build(cfg.RateLimitAnalyze)
	if err != nil {
		return nil, err
	}
	export, err := build(cfg.RateLimitExport)
	if err != nil {
		return nil, err
	}
	return &limiters{fallback: fallback, analyze: analyze, export: export}, nil
}
