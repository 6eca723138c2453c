package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/go-portfolio/roles-endpoint/internal/security"
)

const sessionKeyPrefix = "session:"

var (
	meter = otel.Meter("session")

	sessionRenewedCounter  metric.Int64Counter
	sessionNotFoundCounter metric.Int64Counter
	sessionDurationHist    metric.Float64Histogram

	// Читаем сессию и продлеваем TTL одной атомарной операцией.
	sessionScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val then
    redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return val
`)
)

func init() {
	sessionRenewedCounter, _ = meter.Int64Counter("session_renewed_total")
	sessionNotFoundCounter, _ = meter.Int64Counter("session_notfound_total")
	sessionDurationHist, _ = meter.Float64Histogram("session_duration_seconds")
}

// SessionStore хранит principal'ов в Redis под ключами session:<id>.
type SessionStore struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
}

func NewSessionStore(client *redis.Client, cookieName string, ttl time.Duration) *SessionStore {
	if cookieName == "" {
		cookieName = "session_id"
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{client: client, cookieName: cookieName, ttl: ttl}
}

// CookieName — имя cookie с идентификатором сессии.
func (s *SessionStore) CookieName() string { return s.cookieName }

// Create сохраняет principal и возвращает новый идентификатор сессии.
func (s *SessionStore) Create(ctx context.Context, p security.Principal) (string, error) {
	if p.Name == "" {
		return "", ErrMissingIdentity
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	id := uuid.NewString()
	if err := s.client.Set(ctx, sessionKeyPrefix+id, b, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// Delete удаляет сессию. Отсутствие сессии ошибкой не считается.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Lookup находит principal по идентификатору и продлевает сессию.
func (s *SessionStore) Lookup(ctx context.Context, id string) (security.Principal, error) {
	start := time.Now()
	res, err := sessionScript.Run(ctx, s.client, []string{sessionKeyPrefix + id}, int(s.ttl.Seconds())).Result()
	sessionDurationHist.Record(ctx, time.Since(start).Seconds())

	if errors.Is(err, redis.Nil) || (err == nil && res == nil) {
		sessionNotFoundCounter.Add(ctx, 1)
		return security.Principal{}, fmt.Errorf("%w: session not found", ErrInvalidCredentials)
	}
	if err != nil {
		return security.Principal{}, fmt.Errorf("lookup session: %w", err)
	}

	raw, ok := res.(string)
	if !ok {
		return security.Principal{}, fmt.Errorf("lookup session: unexpected reply %T", res)
	}
	var p security.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return security.Principal{}, fmt.Errorf("%w: corrupt session", ErrInvalidCredentials)
	}
	if p.Name == "" {
		return security.Principal{}, ErrMissingIdentity
	}

	sessionRenewedCounter.Add(ctx, 1)
	return p, nil
}

// Resolve реализует Resolver по cookie сессии.
func (s *SessionStore) Resolve(r *http.Request) (security.Principal, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return security.Principal{}, ErrNoCredentials
	}
	return s.Lookup(r.Context(), cookie.Value)
}
