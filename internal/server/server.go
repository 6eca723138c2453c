package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-portfolio/roles-endpoint/internal/auth"
	"github.com/go-portfolio/roles-endpoint/internal/handlers"
	"github.com/go-portfolio/roles-endpoint/internal/middleware"
	authmw "github.com/go-portfolio/roles-endpoint/internal/middleware/auth"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/authz"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/logging"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/metrics"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/recovery"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/requestid"
	"github.com/go-portfolio/roles-endpoint/internal/security"
)

// Deps — всё, что нужно для сборки HTTP-обработчика.
type Deps struct {
	// Resolver определяет principal. nil — все запросы анонимные.
	Resolver auth.Resolver
	// Policy — правила доступа. Нулевое значение запрещает всё.
	Policy authz.Policy
	// RateLimit оборачивает эндпоинт. nil — без ограничений.
	RateLimit middleware.Middleware
	// Metrics отдаёт /metrics. nil — promhttp.Handler().
	Metrics http.Handler
}

// NewHandler собирает маршруты и общую цепочку middleware.
// Цепочка: RequestID → Recovery → Logging → Metrics → Auth → Authz → mux.
// Authz стоит перед маршрутизатором, поэтому маршрут без правила закрыт.
func NewHandler(d Deps) http.Handler {
	resolver := d.Resolver
	if resolver == nil {
		resolver = auth.ResolverFunc(anonymous)
	}
	metricsHandler := d.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	mux := http.NewServeMux()

	// Экспорт метрик
	mux.Handle("/metrics", metricsHandler)

	// Открытый маршрут для проверки живости.
	mux.HandleFunc("GET "+handlers.PingPath, handlers.Ping)

	// Эндпоинт: только GET (HEAD роутер добавляет сам), остальные методы — 405.
	mux.Handle("GET "+handlers.EchoPath, middleware.Chain(http.HandlerFunc(handlers.Echo), d.RateLimit))

	return middleware.Chain(mux,
		requestid.RequestID,
		recovery.Recovery,
		logging.Logging,
		metrics.Metrics(handlers.EchoPath, handlers.PingPath, "/metrics"),
		authmw.Auth(resolver),
		authz.Enforce(d.Policy),
	)
}

func anonymous(*http.Request) (security.Principal, error) {
	return security.Principal{}, auth.ErrNoCredentials
}

// Config — параметры http.Server.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig возвращает таймауты, подходящие для публичного API.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:              addr,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// New создаёт http.Server с таймаутами.
func New(handler http.Handler, cfg Config) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
