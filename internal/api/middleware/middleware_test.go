package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (RateResult, error) {
	return RateResult{}, errors.New("connection refused")
}

func TestMemoryLimiterCounts(t *testing.T) {
	limiter := NewMemoryLimiter(2, 15*time.Minute)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, 1, res.Remaining)

	res, _ = limiter.Allow(ctx, "1.2.3.4")
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	res, _ = limiter.Allow(ctx, "1.2.3.4")
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.ResetAfter, 14*time.Minute)
	assert.LessOrEqual(t, res.ResetAfter, 15*time.Minute)

	// другой адрес считается отдельно
	res, _ = limiter.Allow(ctx, "5.6.7.8")
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func newMiniredisLimiter(t *testing.T, limit int, window time.Duration) (*StoreLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	limiter, err := NewRedisLimiter(client, limit, window)
	require.NoError(t, err)
	return limiter, mr
}

func TestRedisLimiter(t *testing.T) {
	const window = 15 * time.Minute

	type hit struct {
		advance       time.Duration
		key           string
		wantAllowed   bool
		wantRemaining int
	}

	tests := []struct {
		name string
		hits []hit
	}{
		{
			name: "counts requests within the window",
			hits: []hit{
				{key: "1.2.3.4", wantAllowed: true, wantRemaining: 1},
				{key: "1.2.3.4", wantAllowed: true, wantRemaining: 0},
				{key: "1.2.3.4", wantAllowed: false, wantRemaining: 0},
				{key: "1.2.3.4", wantAllowed: false, wantRemaining: 0},
			},
		},
		{
			name: "keys are counted separately",
			hits: []hit{
				{key: "1.2.3.4", wantAllowed: true, wantRemaining: 1},
				{key: "1.2.3.4", wantAllowed: true, wantRemaining: 0},
				{key: "5.6.7.8", wantAllowed: true, wantRemaining: 1},
			},
		},
		{
			name: "count survives part of the window",
			hits: []hit{
				{key: "1.2.3.4", wantAllowed: true, wantRemaining: 1},
				{advance: 10 * time.Minute, key: "1.2.3.4", wantAllowed: true, wantRemaining: 0},
				{advance: 4 * time.Minute, key: "1.2.3.4", wantAllowed: false, wantRemaining: 0},
			},
		},
		{
			name: "window resets after expiry",
			hits: []hit{
				{key: "1.2.3.4", wantAllowed: true, wantRemaining: 1},
				{key: "1.2.3.4", wantAllowed: true, wantRemaining: 0},
				{key: "1.2.3.4", wantAllowed: false, wantRemaining: 0},
				{advance: window, key: "1.2.3.4", wantAllowed: true, wantRemaining: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, mr := newMiniredisLimiter(t, 2, window)

			for i, h := range tt.hits {
				mr.FastForward(h.advance)

				res, err := limiter.Allow(context.Background(), h.key)
				require.NoError(t, err, "hit %d", i)
				assert.Equal(t, h.wantAllowed, res.Allowed, "hit %d", i)
				assert.Equal(t, h.wantRemaining, res.Remaining, "hit %d", i)
				assert.Equal(t, 2, res.Limit, "hit %d", i)
			}
		})
	}
}

func TestRedisLimiterExpiry(t *testing.T) {
	const window = 15 * time.Minute
	limiter, mr := newMiniredisLimiter(t, 5, window)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.InDelta(t, float64(window), float64(res.ResetAfter), float64(2*time.Second))

	// первый запрос окна создает счетчик со сроком жизни окна
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "1.2.3.4")
	assert.Equal(t, window, mr.TTL(keys[0]))

	count, err := mr.Get(keys[0])
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	// последующие запросы не продлевают окно
	mr.FastForward(10 * time.Minute)
	res, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Remaining)
	assert.Equal(t, 5*time.Minute, mr.TTL(keys[0]))
	assert.InDelta(t, float64(5*time.Minute), float64(res.ResetAfter), float64(2*time.Second))

	mr.FastForward(5 * time.Minute)
	assert.False(t, mr.Exists(keys[0]))
}

func TestRateLimitMiddlewareWithRedis(t *testing.T) {
	limiter, _ := newMiniredisLimiter(t, 1, 15*time.Minute)
	handler := RateLimit(limiter, discardLogger())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"msg":"Too many requests, please try again later."}`, rec.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewMemoryLimiter(1, 15*time.Minute)
	handler := RateLimit(limiter, discardLogger())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// тот же адрес с другим портом
	req.RemoteAddr = "10.0.0.1:6666"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"msg":"Too many requests, please try again later."}`, rec.Body.String())
}

func TestRateLimitAllowsWhenLimiterFails(t *testing.T) {
	handler := RateLimit(failingLimiter{}, discardLogger())(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRedisLimiterUnavailable(t *testing.T) {
	limiter, mr := newMiniredisLimiter(t, 100, 15*time.Minute)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "1.2.3.4")
	assert.Error(t, err)

	// без Redis запросы проходят
	rec := httptest.NewRecorder()
	RateLimit(limiter, discardLogger())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "192.168.1.1:1234"
	assert.Equal(t, "192.168.1.1", clientKey(req))

	req.RemoteAddr = "[::1]:1234"
	assert.Equal(t, "::1", clientKey(req))

	// после RealIP порта нет
	req.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientKey(req))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "0", rec.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "max-age=15552000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "same-origin", rec.Header().Get("Cross-Origin-Opener-Policy"))
	assert.Equal(t, "off", rec.Header().Get("X-DNS-Prefetch-Control"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"path":"/missing"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"bytes":4`)
}
