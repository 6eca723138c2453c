package authz

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/go-portfolio/roles-endpoint/internal/middleware"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/auth"
	"github.com/go-portfolio/roles-endpoint/internal/middleware/requestid"
	"github.com/go-portfolio/roles-endpoint/internal/security"
	"github.com/go-portfolio/roles-endpoint/internal/utils"
)

var (
	meter        = otel.Meter("authz")
	grantedTotal metric.Int64Counter
	deniedTotal  metric.Int64Counter
)

func init() {
	grantedTotal, _ = meter.Int64Counter("authz_granted_total")
	deniedTotal, _ = meter.Int64Counter("authz_denied_total")
}

// Decision — итог проверки доступа.
type Decision int

const (
	Granted Decision = iota
	// Unauthenticated — правило требует роль, а вызывающий не определён.
	Unauthenticated
	// Forbidden — вызывающий известен, но прав нет (или маршрут закрыт целиком).
	Forbidden
)

// Decide применяет правило к principal. Всё, что явно не разрешено, запрещено.
func Decide(rule Rule, p security.Principal, authenticated bool) (Decision, string) {
	switch {
	case rule.DenyAll:
		return Forbidden, "deny_all"
	case rule.PermitAll:
		return Granted, "permit_all"
	case len(rule.RolesAllowed) == 0:
		return Forbidden, "no_grant"
	case !authenticated:
		return Unauthenticated, "anonymous"
	case p.Name == "":
		// principal без имени считаем неаутентифицированным
		return Unauthenticated, "missing_identity"
	case p.HasAnyRole(rule.RolesAllowed...):
		return Granted, "role"
	}
	return Forbidden, "missing_role"
}

// Enforce — RBAC-проверка перед handler'ом.
// Должна стоять после auth.Auth, чтобы principal уже был в контексте.
func Enforce(policy Policy) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := security.FromContext(r.Context())
			decision, reason := Decide(policy.RuleFor(r.URL.Path), p, ok)

			if decision == Granted {
				grantedTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", reason)))
				next.ServeHTTP(w, r)
				return
			}

			deniedTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", reason)))
			log.Info().
				Str("request_id", requestid.FromContext(r.Context())).
				Str("path", r.URL.Path).
				Str("user", p.Name).
				Str("reason", reason).
				Msg("access denied")

			if decision == Unauthenticated {
				auth.Challenge(w)
				return
			}
			utils.Error(w, http.StatusForbidden)
		})
	}
}
