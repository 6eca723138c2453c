package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/go-portfolio/roles-endpoint/internal/auth"
	"github.com/go-portfolio/roles-endpoint/internal/config"
	"github.com/go-portfolio/roles-endpoint/internal/logger"
	"github.com/go-portfolio/roles-endpoint/internal/metrics"
	"github.com/go-portfolio/roles-endpoint/internal/middleware"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/ratelimit"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/slidingwindow"
	"github.com/go-portfolio/roles-endpoint/internal/server"
	"github.com/go-portfolio/roles-endpoint/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("logger setup error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Prometheus-метрики HTTP и OTel-счётчики middleware на одном /metrics.
	metrics.Init()
	shutdownMetrics, err := metrics.InitOTel()
	if err != nil {
		log.Fatal().Err(err).Msg("otel init error")
	}
	defer shutdownMetrics(context.Background())

	policy, err := cfg.Policy()
	if err != nil {
		log.Fatal().Err(err).Msg("policy error")
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = store.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("redis init error")
		}
		defer rdb.Close()
	}

	resolver, err := buildResolver(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("auth init error")
	}

	handler := server.NewHandler(server.Deps{
		Resolver:  resolver,
		Policy:    policy,
		RateLimit: buildRateLimit(cfg, rdb),
	})

	srv := server.New(handler, server.DefaultConfig(cfg.Addr))

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}

// buildResolver: Bearer JWT, если задан ключ, и сессии в Redis, если Redis подключён.
func buildResolver(cfg config.Config, rdb *redis.Client) (auth.Resolver, error) {
	var resolvers []auth.Resolver

	jwtCfg, ok, err := cfg.JWTConfig()
	if err != nil {
		return nil, err
	}
	if ok {
		jwtResolver, err := auth.NewJWTResolver(jwtCfg)
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, jwtResolver)
	}

	if rdb != nil {
		resolvers = append(resolvers, auth.NewSessionStore(rdb, cfg.Session.Cookie, cfg.Session.TTL))
	}

	if len(resolvers) == 0 {
		log.Warn().Msg("no credentials source configured; protected routes will deny every request")
	}
	return auth.Chain(resolvers...), nil
}

func buildRateLimit(cfg config.Config, rdb *redis.Client) middleware.Middleware {
	if rdb == nil {
		return nil
	}
	switch cfg.RateLimit.Strategy {
	case "fixed":
		return ratelimit.New(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window).Middleware
	case "sliding":
		return slidingwindow.New(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window).Middleware
	}
	return nil
}
