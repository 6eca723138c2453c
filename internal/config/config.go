package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/go-portfolio/roles-endpoint/internal/auth"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/authz"
)

// Config — настройки сервиса. Заполняется из переменных окружения.
type Config struct {
	Addr      string `validate:"required"`
	LogLevel  string `validate:"oneof=trace debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// PolicyFile — YAML с правилами доступа; если пусто, политика строится
	// из RequiredRole и DefaultPolicy.
	PolicyFile    string `validate:"omitempty,file"`
	RequiredRole  string `validate:"required_without=PolicyFile"`
	DefaultPolicy string `validate:"oneof=deny permit"`

	JWT       JWT
	Redis     Redis
	RateLimit RateLimit
	Session   Session

	ShutdownGrace time.Duration `validate:"gt=0"`
}

type JWT struct {
	Issuer        string
	Audience      string
	HMACSecret    string        `validate:"omitempty,min=32"`
	PublicKeyFile string        `validate:"omitempty,file"`
	ClockSkew     time.Duration `validate:"gte=0"`
}

type Redis struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

type RateLimit struct {
	Strategy string        `validate:"oneof=off fixed sliding"`
	Limit    int           `validate:"gt=0"`
	Window   time.Duration `validate:"gt=0"`
}

type Session struct {
	Cookie string        `validate:"required"`
	TTL    time.Duration `validate:"gt=0"`
}

// Load читает конфигурацию из окружения процесса.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom читает конфигурацию через getenv, применяет значения по умолчанию и валидирует.
func LoadFrom(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}

	cfg := Config{
		Addr:          ":8080",
		LogLevel:      e.str("LOG_LEVEL", "info"),
		LogFormat:     e.str("LOG_FORMAT", "json"),
		PolicyFile:    e.str("POLICY_FILE", ""),
		RequiredRole:  e.str("ECHO_REQUIRED_ROLE", "Echoer"),
		DefaultPolicy: e.str("DEFAULT_POLICY", string(authz.Deny)),
		JWT: JWT{
			Issuer:        e.str("JWT_ISSUER", ""),
			Audience:      e.str("JWT_AUDIENCE", ""),
			HMACSecret:    e.str("JWT_HMAC_SECRET", ""),
			PublicKeyFile: e.str("JWT_PUBLIC_KEY_FILE", ""),
			ClockSkew:     e.duration("JWT_CLOCK_SKEW", 30*time.Second),
		},
		Redis: Redis{
			Addr:     e.str("REDIS_ADDR", ""),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.int("REDIS_DB", 0),
		},
		RateLimit: RateLimit{
			Strategy: e.str("RATE_LIMIT_STRATEGY", "fixed"),
			Limit:    e.int("RATE_LIMIT", 5),
			Window:   e.duration("RATE_WINDOW", time.Second),
		},
		Session: Session{
			Cookie: e.str("SESSION_COOKIE", "session_id"),
			TTL:    e.duration("SESSION_TTL", 30*time.Minute),
		},
		ShutdownGrace: e.duration("SHUTDOWN_GRACE", 10*time.Second),
	}
	// Порт по умолчанию — 8080. Если в окружении задана переменная PORT — используем её.
	if v := getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}

	if e.err != nil {
		return Config{}, e.err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Policy возвращает политику доступа: из файла или из RequiredRole/DefaultPolicy.
func (c Config) Policy() (authz.Policy, error) {
	if c.PolicyFile != "" {
		return authz.LoadPolicyFile(c.PolicyFile)
	}
	effect, err := authz.ParseEffect(c.DefaultPolicy)
	if err != nil {
		return authz.Policy{}, err
	}
	return authz.DefaultPolicy(c.RequiredRole, effect), nil
}

// JWTConfig собирает настройки проверки токенов.
// Второе значение false, если ключ не задан и Bearer-токены не принимаются.
func (c Config) JWTConfig() (auth.JWTConfig, bool, error) {
	cfg := auth.JWTConfig{
		Issuer:    c.JWT.Issuer,
		Audience:  c.JWT.Audience,
		ClockSkew: c.JWT.ClockSkew,
	}
	switch {
	case c.JWT.PublicKeyFile != "":
		b, err := os.ReadFile(c.JWT.PublicKeyFile)
		if err != nil {
			return cfg, false, fmt.Errorf("read jwt public key: %w", err)
		}
		key, err := auth.ParseRSAPublicKeyFromPEM(b)
		if err != nil {
			return cfg, false, err
		}
		cfg.PublicKey = key
		return cfg, true, nil
	case c.JWT.HMACSecret != "":
		cfg.HMACKey = []byte(c.JWT.HMACSecret)
		return cfg, true, nil
	}
	return cfg, false, nil
}

// env копит первую ошибку разбора, чтобы не проверять каждое поле отдельно.
type env struct {
	getenv func(string) string
	err    error
}

func (e *env) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
	return n
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
	return d
}
