// Package middleware holds the echo middleware shared by the API server.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"SentiMatch/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type requestMetrics struct {
	total    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	size     *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

var (
	rmOnce sync.Once
	rm     *requestMetrics
)

func metrics() *requestMetrics {
	rmOnce.Do(func() {
		rm = &requestMetrics{
			total: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "sentimatch_http_requests_total",
				Help: "HTTP requests by route, method and status code.",
			}, []string{"route", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "sentimatch_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2.5, 10),
			}, []string{"route", "method", "class"}),
			size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "sentimatch_http_response_size_bytes",
				Help:    "HTTP response body size.",
				Buckets: prometheus.ExponentialBuckets(256, 4, 9),
			}, []string{"route", "method", "class"}),
			inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "sentimatch_http_in_flight_requests",
				Help: "Requests currently being served.",
			}),
		}
		prometheus.MustRegister(rm.total, rm.latency, rm.size, rm.inFlight)
	})
	return rm
}

// Recover answers 500 when a handler panics and logs the stack.
func Recover(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				l.Error("handler panic",
					logger.Error(fmt.Errorf("%v", r)),
					logger.String("route", c.Path()),
					logger.String("stack", string(debug.Stack())))
				err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
				})
			}()
			return next(c)
		}
	}
}

// Observe records request metrics under the echo route template and writes
// one debug line per request. Server errors log at error level and requests
// slower than slow log at warn.
func Observe(l *logger.Logger, slow time.Duration) echo.MiddlewareFunc {
	m := metrics()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				// write it now so the status below is final
				c.Error(err)
			}

			res := c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			class := strconv.Itoa(res.Status/100) + "xx"
			took := time.Since(start)

			m.total.WithLabelValues(route, method, strconv.Itoa(res.Status)).Inc()
			m.latency.WithLabelValues(route, method, class).Observe(took.Seconds())
			m.size.WithLabelValues(route, method, class).Observe(float64(res.Size))

			fields := []logger.Field{
				logger.String("method", method),
				logger.String("uri", c.Request().RequestURI),
				logger.String("remote", c.RealIP()),
				logger.Int("status", res.Status),
				logger.Duration("latency", took),
				logger.Int64("bytes", res.Size),
			}
			switch {
			case res.Status >= http.StatusInternalServerError:
				l.Error("http request failed", fields...)
			case slow > 0 && took >= slow:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
