package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-portfolio/roles-endpoint/internal/metrics"
	"github.com/go-portfolio/roles-endpoint/internal/middleware"
	"github.com/go-portfolio/roles-endpoint/internal/utils"
)

// otherPath — метка для путей вне списка известных маршрутов.
// Иначе сканеры раздувают кардинальность path.
const otherPath = "other"

// Metrics — middleware для сбора метрик Prometheus по HTTP-запросам.
// routes — известные маршруты, они попадают в метку path как есть.
func Metrics(routes ...string) middleware.Middleware {
	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Обёртка вокруг ResponseWriter, чтобы знать статус код ответа
			rw := utils.NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if _, ok := known[path]; !ok {
				path = otherPath
			}

			metrics.HttpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.Status)).Inc()
			metrics.HttpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
