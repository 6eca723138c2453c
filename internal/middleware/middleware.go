package middleware

import (
	"net"
	"net/http"

	"github.com/go-portfolio/roles-endpoint/internal/security"
)

// Middleware — функция-обёртка, которая принимает http.Handler и возвращает новый http.Handler.
// Так строятся "цепочки" middleware вокруг конечного обработчика.
type Middleware func(http.Handler) http.Handler

// Chain оборачивает handler в цепочку middleware.
// Первый в списке становится самым внешним: Chain(h, A, B) == A(B(h)).
// nil-элементы пропускаются, это удобно для опциональных слоёв (например, rate limit без Redis).
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		h = mws[i](h)
	}
	return h
}

// ClientKey — ключ клиента для лимитов: имя principal, если он известен, иначе IP.
func ClientKey(r *http.Request) string {
	if p, ok := security.FromContext(r.Context()); ok && p.Name != "" {
		return "user:" + p.Name
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
