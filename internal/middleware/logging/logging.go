package logging

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-portfolio/roles-endpoint/internal/middleware/requestid"
	"github.com/go-portfolio/roles-endpoint/internal/utils"
)

// entry — поля access-лога, которые заполняют внутренние middleware.
type entry struct {
	user string
}

type entryKey struct{}

// SetUser сообщает access-логу имя вызывающего.
// Auth выполняется глубже по цепочке, поэтому имя передаётся через контекст.
func SetUser(ctx context.Context, name string) {
	if e, ok := ctx.Value(entryKey{}).(*entry); ok {
		e.user = name
	}
}

// Logging — middleware для структурированного логирования HTTP запросов.
// Строку запроса не логируем: input относится к пользовательским данным.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := requestid.FromContext(r.Context())

		wrapper := utils.NewResponseWriter(w)
		e := &entry{}

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("request_id", rid).
			Msg("incoming request")

		next.ServeHTTP(wrapper, r.WithContext(context.WithValue(r.Context(), entryKey{}, e)))

		event := log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("request_id", rid).
			Int("status", wrapper.Status).
			Dur("duration", time.Since(start))

		if e.user != "" {
			event = event.Str("user", e.user)
		}

		// Логи ошибок для статусов >= 400
		if wrapper.Status >= 400 {
			event.Msg("request completed with error")
		} else {
			event.Msg("request completed successfully")
		}
	})
}
