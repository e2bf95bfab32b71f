package ratelimit

import (
	"math"
	"strconv"
	"sync/atomic"
	"time"

	apphttp "SentiMatch/pkg/http"

	"github.com/labstack/echo/v4"
)

const (
	pruneEvery = 1024
	pruneIdle  = 10 * time.Minute
)

// Middleware rejects callers over their budget with 429, keyed by client IP.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	var seen atomic.Uint64
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if seen.Add(1)%pruneEvery == 0 {
				l.Prune(pruneIdle)
			}
			key := c.RealIP()
			if l.Allow(key) {
				return next(c)
			}
			if wait := l.RetryAfter(key); wait > 0 {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			return apphttp.AppErrorResponse(c, apphttp.TooManyRequestsError("rate limit exceeded"))
		}
	}
}
