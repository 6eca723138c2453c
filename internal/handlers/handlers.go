package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/go-portfolio/roles-endpoint/internal/middleware/requestid"
	"github.com/go-portfolio/roles-endpoint/internal/security"
	"github.com/go-portfolio/roles-endpoint/internal/utils"
)

const (
	// EchoPath — маршрут эндпоинта.
	EchoPath = "/endp/echo"
	PingPath = "/ping"
)

// Ping — проверка живости, доступна без аутентификации.
func Ping(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

// Echo отвечает "<input>, user=<name>".
// Доступ проверяет authz до вызова; здесь principal только читается.
// Отсутствующий input трактуется как пустая строка.
func Echo(w http.ResponseWriter, r *http.Request) {
	p, ok := security.FromContext(r.Context())
	if !ok || p.Name == "" {
		// authz такое не пропускает; если дошло сюда — ошибка сборки цепочки
		log.Error().
			Str("request_id", requestid.FromContext(r.Context())).
			Msg("echo reached without resolved principal")
		utils.Error(w, http.StatusInternalServerError)
		return
	}

	utils.Text(w, http.StatusOK, EchoMessage(r.URL.Query().Get("input"), p.Name))
}

// EchoMessage собирает тело ответа.
func EchoMessage(input, name string) string {
	return input + ", user=" + name
}
