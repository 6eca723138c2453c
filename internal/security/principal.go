package security

import "context"

// Principal — идентичность аутентифицированного вызывающего.
// Name — отображаемое имя (то, что попадает в ответ эндпоинта),
// Subject — стабильный идентификатор (sub), Roles — выданные роли.
type Principal struct {
	Name    string   `json:"name"`
	Subject string   `json:"subject,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// HasRole проверяет наличие роли. Сравнение точное, с учётом регистра.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole возвращает true, если есть хотя бы одна из ролей.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// WithPrincipal кладёт principal в контекст запроса.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext достаёт principal из контекста.
// Второе значение false, если запрос анонимный.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
