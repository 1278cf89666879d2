package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/justsurfingit/career-atlas/internal/auth"
)

// RateLimit allows perMinute requests per user (or client IP when nobody is
// signed in), with a burst of the same size.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
		every    = rate.Every(time.Minute / time.Duration(perMinute))
	)
	return func(c *gin.Context) {
		key := c.ClientIP()
		if user := auth.CurrentUser(c); user != nil {
			key = "uid:" + user.UID
		}

		mu.Lock()
		lim, ok := limiters[key]
		if !ok {
			lim = rate.NewLimiter(every, perMinute)
			limiters[key] = lim
		}
		mu.Unlock()

		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many uploads, slow down", "retryable": true})
			return
		}
		c.Next()
	}
}
