package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/config"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetRateLimitType(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   RateLimitType
	}{
		{http.MethodGet, "/health", RateLimitTypeHealth},
		{http.MethodGet, "/api/v1/admin/bookings", RateLimitTypeAdmin},
		{http.MethodGet, "/api/v1/admin/events/:id/consistency", RateLimitTypeAdmin},
		{http.MethodGet, "/api/v1/events/:id/seats/stream", RateLimitTypeStream},
		{http.MethodPost, "/api/v1/bookings", RateLimitTypeBookingCritical},
		{http.MethodPut, "/api/v1/bookings/:id/cancel", RateLimitTypeBookingCritical},
		{http.MethodGet, "/api/v1/bookings/me", RateLimitTypeBooking},
		{http.MethodGet, "/api/v1/events/:id/seats/quote", RateLimitTypeBooking},
		{http.MethodGet, "/api/v1/public/events", RateLimitTypePublic},
		{http.MethodGet, "/swagger/*any", RateLimitTypeDefault},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, getRateLimitType(tc.method, tc.path), "%s %s", tc.method, tc.path)
	}
}

func TestGetClientIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", getClientIP(c))

	c.Request.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", getClientIP(c))

	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", getClientIP(c))
}

func TestMiddleware_DisabledLetsEverythingThrough(t *testing.T) {
	limiter := NewRateLimiter(nil, config.RateLimitConfig{Enabled: false, PublicRequests: 1})

	router := gin.New()
	router.Use(Middleware(limiter, logger.Discard()))
	router.GET("/api/v1/public/events", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/public/events", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	}
}

// Needs a live Redis; set REDIS_TEST_ADDR to run.
func TestRateLimiter_SlidingWindow(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, config.RateLimitConfig{
		Enabled:                 true,
		WindowDuration:          time.Minute,
		BookingCriticalRequests: 2,
		WhitelistedIPs:          []string{"127.0.0.1"},
	})
	ctx := context.Background()
	ip := "198.51.100." + uuid.NewString()[:4]

	for i := 0; i < 2; i++ {
		res, err := limiter.IsAllowed(ctx, ip, RateLimitTypeBookingCritical)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1-i, res.Remaining)
	}

	res, err := limiter.IsAllowed(ctx, ip, RateLimitTypeBookingCritical)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	res, err = limiter.IsAllowed(ctx, "127.0.0.1", RateLimitTypeBookingCritical)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
