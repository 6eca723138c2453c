package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/go-portfolio/roles-endpoint/internal/middleware"
	"github.com/go-portfolio/roles-endpoint/internal/utils"
)

var (
	// Инкремент и проверка лимита одной атомарной операцией, без гонок.
	rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local current = redis.call("INCR", key)
if current == 1 then
  redis.call("EXPIRE", key, window)
end
if current > limit then
  return 0
end
return 1
`)

	// Метрики OpenTelemetry
	meter           = otel.Meter("ratelimit")
	requestsCounter metric.Int64Counter
	droppedCounter  metric.Int64Counter
	durationHist    metric.Float64Histogram
)

func init() {
	requestsCounter, _ = meter.Int64Counter("ratelimit_requests_total")
	droppedCounter, _ = meter.Int64Counter("ratelimit_dropped_total")
	durationHist, _ = meter.Float64Histogram("ratelimit_duration_seconds")
}

// Limiter — фиксированное окно на Redis: не больше limit запросов за window на клиента.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// New создаёт лимитер. Окно округляется вверх до секунды (EXPIRE в секундах).
func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	if window < time.Second {
		window = time.Second
	}
	return &Limiter{client: client, limit: limit, window: window, prefix: "rate_limit:"}
}

// Middleware отвечает 429, когда лимит превышен.
// При ошибке Redis запрос пропускается (fail-open).
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			durationHist.Record(r.Context(), time.Since(start).Seconds())
		}()

		key := l.prefix + middleware.ClientKey(r)
		windowSec := int((l.window + time.Second - 1) / time.Second)

		ok, err := rateLimitScript.Run(r.Context(), l.client, []string{key}, l.limit, windowSec).Result()
		requestsCounter.Add(r.Context(), 1)

		if err != nil {
			// fail-open
			log.Warn().Err(err).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		allowed, okCast := ok.(int64)
		if !okCast || allowed == 0 {
			droppedCounter.Add(r.Context(), 1)
			w.Header().Set("Retry-After", strconv.Itoa(windowSec))
			utils.Error(w, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
