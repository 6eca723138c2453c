package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	identity "github.com/go-portfolio/roles-endpoint/internal/auth"
	"github.com/go-portfolio/roles-endpoint/internal/security"
)

// stubResolver отдаёт заранее заданный результат, какой бы запрос ни пришёл.
func stubResolver(p security.Principal, err error) identity.Resolver {
	return identity.ResolverFunc(func(*http.Request) (security.Principal, error) {
		return p, err
	})
}

// echoName — конечный handler: пишет имя principal или "anonymous".
var echoName = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p, ok := security.FromContext(r.Context())
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(p.Name))
})

func TestAuthMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		principal  security.Principal
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "resolved principal goes to context",
			principal:  security.Principal{Name: "alice"},
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "no credentials passes anonymously",
			err:        identity.ErrNoCredentials,
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name:       "invalid credentials are rejected",
			err:        identity.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "nameless identity is rejected",
			err:        identity.ErrMissingIdentity,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "backend failure is an internal error",
			err:        errors.New("redis: connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(stubResolver(tc.principal, tc.err))(echoName)

			req := httptest.NewRequest(http.MethodGet, "/endp/echo", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("want %d, got %d", tc.wantStatus, rr.Code)
			}
			if tc.wantBody != "" && rr.Body.String() != tc.wantBody {
				t.Errorf("want body %q, got %q", tc.wantBody, rr.Body.String())
			}
			if tc.wantStatus == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
				t.Errorf("401 must carry WWW-Authenticate")
			}
			// внутренние детали ошибки не должны утекать в ответ
			if tc.err != nil && tc.wantStatus >= 400 {
				if body := rr.Body.String(); body == "" || strings.Contains(body, "redis") {
					t.Errorf("unexpected error body %q", body)
				}
			}
		})
	}
}
