package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header — заголовок с идентификатором запроса.
const Header = "X-Request-Id"

type ctxKey struct{}

// RequestID берёт X-Request-Id от клиента или генерирует новый UUID,
// кладёт его в контекст и возвращает в ответе.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// FromContext возвращает идентификатор запроса или пустую строку.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
