package auth

import (
	"errors"
	"net/http"

	"github.com/go-portfolio/roles-endpoint/internal/security"
)

var (
	// ErrNoCredentials — резолвер не нашёл своих учётных данных в запросе.
	ErrNoCredentials = errors.New("no credentials")
	// ErrInvalidCredentials — учётные данные предъявлены, но не прошли проверку.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingIdentity — учётные данные валидны, но имя вызывающего не определено.
	ErrMissingIdentity = errors.New("identity has no name")
)

// Resolver определяет principal по входящему запросу.
type Resolver interface {
	Resolve(r *http.Request) (security.Principal, error)
}

// ResolverFunc позволяет использовать функцию как Resolver.
type ResolverFunc func(r *http.Request) (security.Principal, error)

func (f ResolverFunc) Resolve(r *http.Request) (security.Principal, error) {
	return f(r)
}

// Chain опрашивает резолверы по порядку. Побеждает первый,
// который вернул что-то кроме ErrNoCredentials.
func Chain(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(r *http.Request) (security.Principal, error) {
		for _, res := range resolvers {
			if res == nil {
				continue
			}
			p, err := res.Resolve(r)
			if errors.Is(err, ErrNoCredentials) {
				continue
			}
			return p, err
		}
		return security.Principal{}, ErrNoCredentials
	})
}
