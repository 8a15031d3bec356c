package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/St1cky1/task-manager-api/internal/api/errmap"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitMessage = "Too many requests, please try again later."

// RateResult - состояние окна для одного ключа после учета запроса
type RateResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter считает запросы в фиксированном окне
type Limiter interface {
	Allow(ctx context.Context, key string) (RateResult, error)
}

const (
	rateLimitPrefix = "rate_limit"
	// как часто хранилище в памяти выбрасывает истекшие окна
	memoryCleanUpInterval = time.Minute
)

// StoreLimiter - фиксированное окно поверх limiter.Store: в памяти процесса
// или в Redis, общий для всех экземпляров сервиса
type StoreLimiter struct {
	limiter *limiter.Limiter
	now     func() time.Time
}

func NewStoreLimiter(store limiter.Store, limit int, window time.Duration) *StoreLimiter {
	return &StoreLimiter{
		limiter: limiter.New(store, limiter.Rate{Period: window, Limit: int64(limit)}),
		now:     time.Now,
	}
}

// NewMemoryLimiter - счетчики в памяти, используется без REDIS_URL
func NewMemoryLimiter(limit int, window time.Duration) *StoreLimiter {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		CleanUpInterval: memoryCleanUpInterval,
	})
	return NewStoreLimiter(store, limit, window)
}

// NewRedisLimiter - счетчики в Redis: INCR и PEXPIRE на первом запросе окна
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) (*StoreLimiter, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: rateLimitPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis rate limit store: %w", err)
	}
	return NewStoreLimiter(store, limit, window), nil
}

func (l *StoreLimiter) Allow(ctx context.Context, key string) (RateResult, error) {
	state, err := l.limiter.Get(ctx, key)
	if err != nil {
		return RateResult{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	resetAfter := time.Unix(state.Reset, 0).Sub(l.now())
	if resetAfter < 0 {
		resetAfter = 0
	}

	return RateResult{
		Allowed:    !state.Reached,
		Limit:      int(state.Limit),
		Remaining:  int(state.Remaining),
		ResetAfter: resetAfter,
	}, nil
}

// RateLimit ограничивает число запросов с одного адреса. Ключ - r.RemoteAddr,
// поэтому middleware.RealIP должен стоять раньше. Ошибки Limiter пропускают запрос.
func RateLimit(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), clientKey(r))
			if err != nil {
				logger.Warn("rate limiter unavailable, request allowed",
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retryAfter := int(math.Ceil(res.ResetAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				errmap.WriteMessage(w, logger, http.StatusTooManyRequests, rateLimitMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey - адрес клиента без порта
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
