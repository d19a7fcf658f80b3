package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// purgeThreshold is the map size at which expired windows are swept.
const purgeThreshold = 1024

// window tracks one client's requests within a fixed window.
type window struct {
	count int
	ends  time.Time
}

// limiter is a per-IP fixed-window counter. Expired entries are swept when
// the map grows past purgeThreshold, so no background goroutine is needed.
type limiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	clients map[string]*window
}

func newLimiter(limit int, period time.Duration) *limiter {
	return &limiter{limit: limit, period: period, clients: make(map[string]*window)}
}

// allow counts one request from ip and reports whether it is within the
// limit, plus when the current window ends.
func (l *limiter) allow(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.clients) >= purgeThreshold {
		l.purge(now)
	}
	w, ok := l.clients[ip]
	if !ok || now.After(w.ends) {
		w = &window{ends: now.Add(l.period)}
		l.clients[ip] = w
	}
	w.count++
	return w.count <= l.limit, w.ends
}

func (l *limiter) purge(now time.Time) {
	purged := 0
	for ip, w := range l.clients {
		if now.After(w.ends) {
			delete(l.clients, ip)
			purged++
		}
	}
	log.Debug().Int("purged", purged).Int("remaining", len(l.clients)).Msg("rate limiter entries purged")
}

func (l *limiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, ends := l.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", ends.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newLimiter(20, time.Minute).handler("too many login attempts, try again in a minute")
}

// RateLimiter returns a general-purpose per-IP limiter.
func RateLimiter(limit int, period time.Duration) gin.HandlerFunc {
	return newLimiter(limit, period).handler("too many requests, try again shortly")
}
