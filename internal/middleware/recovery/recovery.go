package recovery

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/go-portfolio/roles-endpoint/internal/middleware/requestid"
	"github.com/go-portfolio/roles-endpoint/internal/utils"
)

// Recovery — middleware-функция, которая перехватывает паники во время обработки HTTP-запросов
// и возвращает пользователю стандартный ответ об ошибке сервера (500 Internal Server Error).
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Interface("panic", rec).
					Str("request_id", requestid.FromContext(r.Context())).
					Str("path", r.URL.Path).
					Msg("panic recovered")

				utils.Error(w, http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
