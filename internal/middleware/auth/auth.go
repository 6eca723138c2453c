package auth

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	identity "github.com/go-portfolio/roles-endpoint/internal/auth"
	"github.com/go-portfolio/roles-endpoint/internal/middleware"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/logging"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/requestid"
	"github.com/go-portfolio/roles-endpoint/internal/security"
	"github.com/go-portfolio/roles-endpoint/internal/utils"
)

var (
	meter         = otel.Meter("auth")
	authSuccess   metric.Int64Counter
	authFailed    metric.Int64Counter
	authAnonymous metric.Int64Counter
)

func init() {
	authSuccess, _ = meter.Int64Counter("auth_success_total")
	authFailed, _ = meter.Int64Counter("auth_failed_total")
	authAnonymous, _ = meter.Int64Counter("auth_anonymous_total")
}

// Auth — middleware аутентификации.
// Определяет principal через resolver и кладёт его в контекст запроса.
// Запрос без учётных данных проходит дальше анонимно: решение принимает authz.
// Предъявленные, но невалидные учётные данные → 401 Unauthorized.
// Метрики:
// - auth_success_total — principal определён
// - auth_failed_total — учётные данные отклонены
// - auth_anonymous_total — учётных данных нет
func Auth(resolver identity.Resolver) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolver.Resolve(r)
			switch {
			case err == nil:
				authSuccess.Add(r.Context(), 1)
				logging.SetUser(r.Context(), p.Name)
				next.ServeHTTP(w, r.WithContext(security.WithPrincipal(r.Context(), p)))

			case errors.Is(err, identity.ErrNoCredentials):
				authAnonymous.Add(r.Context(), 1)
				next.ServeHTTP(w, r)

			case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrMissingIdentity):
				authFailed.Add(r.Context(), 1)
				log.Warn().
					Err(err).
					Str("request_id", requestid.FromContext(r.Context())).
					Msg("authentication rejected")
				Challenge(w)

			default:
				// хранилище недоступно и т.п. — наружу только общий ответ
				authFailed.Add(r.Context(), 1)
				log.Error().
					Err(err).
					Str("request_id", requestid.FromContext(r.Context())).
					Msg("authentication backend error")
				utils.Error(w, http.StatusInternalServerError)
			}
		})
	}
}

// Challenge отвечает 401 с заголовком WWW-Authenticate.
func Challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="roles-endpoint"`)
	utils.Error(w, http.StatusUnauthorized)
}
