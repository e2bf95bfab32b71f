package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"SentiMatch/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Use(Recover(logger.Nop()), Observe(logger.Nop(), 0))
	e.GET("/boom", func(echo.Context) error { panic("kaboom") })
	e.GET("/missing/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "no such scenario")
	})
	return e
}

func TestRecoverAnswers500(t *testing.T) {
	rec := httptest.NewRecorder()
	newEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestObserveCountsByRouteTemplate(t *testing.T) {
	e := newEcho()
	before := testutil.ToFloat64(metrics().total.WithLabelValues("/missing/:id", http.MethodGet, "404"))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	after := testutil.ToFloat64(metrics().total.WithLabelValues("/missing/:id", http.MethodGet, "404"))
	assert.Equal(t, 2.0, after-before)
}
