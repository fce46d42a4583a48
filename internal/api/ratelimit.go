package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"medvise.ai/server/internal/apperr"
)

const (
	rateLimitPerSecond      = 10
	rateLimitBurst          = 20
	rateLimitClientTTL      = 3 * time.Minute
	rateLimitCleanupMinutes = 1
)

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit limits requests per client IP using a token bucket. Stale client
// entries are evicted by a background ticker.
func RateLimit() func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*rateLimitClient)
	)

	go func() {
		ticker := time.NewTicker(rateLimitCleanupMinutes * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > rateLimitClientTTL {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			mu.Lock()
			c, ok := clients[ip]
			if !ok {
				c = &rateLimitClient{limiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst)}
				clients[ip] = c
			}
			c.lastSeen = time.Now()
			allowed := c.limiter.Allow()
			mu.Unlock()

			if !allowed {
				writeError(w, &apperr.Error{
					Code:       "RATE_LIMITED",
					Message:    "Too many requests.",
					HTTPStatus: http.StatusTooManyRequests,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
