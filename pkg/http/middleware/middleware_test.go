package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	applogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type countingLimiter struct {
	budget int
	seen   map[string]int
}

func (l *countingLimiter) Allow(key string) bool {
	l.seen[key]++
	return l.seen[key] <= l.budget
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	lim := &countingLimiter{budget: 1, seen: map[string]int{}}
	e.Use(RateLimit(lim, "/health"))
	e.GET("/api/forecast", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/api/forecast"))
	assert.Equal(t, http.StatusTooManyRequests, do("/api/forecast"))
	assert.Equal(t, http.StatusOK, do("/health"))
	assert.Equal(t, http.StatusOK, do("/health"))
}

func TestRecover(t *testing.T) {
	e := echo.New()
	e.Use(Recover(applogger.Nop()))
	e.GET("/boom", func(c echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS(DefaultCORSConfig([]string{"https://dash.example"})))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "https://dash.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dash.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "https://other.example")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
