package slidingwindow

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/go-portfolio/roles-endpoint/internal/middleware"
	"github.com/go-portfolio/roles-endpoint/internal/utils"
)

var (
	meter = otel.Meter("slidingwindow")

	allowedCounter metric.Int64Counter
	blockedCounter metric.Int64Counter
	durationHist   metric.Float64Histogram

	// ZSET с отметками времени: выкидываем всё старше окна и считаем остаток.
	// ARGV[4] — уникальный member, чтобы запросы в одну миллисекунду не схлопывались.
	slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local count = redis.call("ZCARD", key)
if count >= limit then
  return 0
end
redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
return 1
`)
)

func init() {
	allowedCounter, _ = meter.Int64Counter("slidingwindow_allowed_total")
	blockedCounter, _ = meter.Int64Counter("slidingwindow_blocked_total")
	durationHist, _ = meter.Float64Histogram("slidingwindow_duration_seconds")
}

// Limiter — скользящее окно на Redis.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, prefix: "sliding_rate:"}
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		key := l.prefix + middleware.ClientKey(r)
		now := time.Now().UnixMilli()
		windowMS := l.window.Milliseconds()

		res, err := slidingWindowScript.Run(r.Context(), l.client, []string{key}, now, windowMS, l.limit, uuid.NewString()).Result()
		durationHist.Record(r.Context(), time.Since(start).Seconds()) // время выполнения Lua скрипта

		if err != nil {
			log.Warn().Err(err).Msg("sliding window check failed")
			next.ServeHTTP(w, r)
			return
		}

		allowed, ok := res.(int64)
		if !ok || allowed == 0 {
			blockedCounter.Add(r.Context(), 1) // заблокировано
			w.Header().Set("Retry-After", strconv.Itoa(int((l.window+time.Second-1)/time.Second)))
			utils.Error(w, http.StatusTooManyRequests)
			return
		}

		allowedCounter.Add(r.Context(), 1) // разрешено
		next.ServeHTTP(w, r)
	})
}
