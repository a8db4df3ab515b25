package web

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds per-IP limiter state; the least recently seen
// client is forgotten first.
const maxTrackedClients = 10000

// rateLimiter allows perWindow requests per client IP per window, with a
// burst of perWindow.
type rateLimiter struct {
	limit   rate.Limit
	burst   int
	clients *lru.Cache[string, *rate.Limiter]
}

func newRateLimiter(perWindow int, window time.Duration) *rateLimiter {
	clients, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &rateLimiter{
		limit:   rate.Every(window / time.Duration(max(perWindow, 1))),
		burst:   max(perWindow, 1),
		clients: clients,
	}
}

func (rl *rateLimiter) limiterFor(ip string) *rate.Limiter {
	if l, ok := rl.clients.Get(ip); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	if prev, found, _ := rl.clients.PeekOrAdd(ip, l); found {
		return prev
	}
	return l
}

// reserve takes a token for ip. It returns zero when the request may
// proceed, else how long the client should wait.
func (rl *rateLimiter) reserve(ip string, now time.Time) time.Duration {
	r := rl.limiterFor(ip).ReserveN(now, 1)
	if !r.OK() {
		return time.Duration(math.MaxInt64)
	}
	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
	}
	return delay
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if wait := rl.reserve(ip, time.Now()); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(min(wait, time.Hour).Seconds()))))
			respondError(w, r, fmt.Errorf("rate limit exceeded for %s", ip), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
