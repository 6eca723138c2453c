package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// HttpRequestsTotal — счетчик общего количества HTTP-запросов.
// Метки: method (HTTP метод), path (маршрут), status (HTTP статус код).
var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Общее количество HTTP-запросов",
		},
		[]string{"method", "path", "status"},
	)

	// HttpRequestDuration — гистограмма длительности HTTP-запросов в секундах.
	// Метки: method (HTTP метод), path (маршрут).
	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	initOnce sync.Once
)

// Init регистрирует метрики в Prometheus. Повторный вызов ничего не делает.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(HttpRequestsTotal, HttpRequestDuration)
	})
}
