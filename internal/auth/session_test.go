package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-portfolio/roles-endpoint/internal/security"
	"github.com/go-portfolio/roles-endpoint/internal/store"
)

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	// Нужен настоящий Redis, как и в остальных тестах с хранилищем.
	client, err := store.Connect(ctx, "localhost:6379", "", 1)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer client.Close()

	sessions := NewSessionStore(client, "", time.Minute)
	if sessions.CookieName() != "session_id" {
		t.Fatalf("unexpected default cookie name %q", sessions.CookieName())
	}

	if _, err := sessions.Create(ctx, security.Principal{}); !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("want ErrMissingIdentity for nameless principal, got %v", err)
	}

	id, err := sessions.Create(ctx, security.Principal{Name: "alice", Roles: []string{"Echoer"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer sessions.Delete(ctx, id)

	// --- запрос с cookie ---
	req := httptest.NewRequest(http.MethodGet, "/endp/echo", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: id})
	p, err := sessions.Resolve(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Name != "alice" || !p.HasRole("Echoer") {
		t.Errorf("unexpected principal %+v", p)
	}

	// TTL продлевается при каждом обращении
	ttl, err := client.TTL(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected ttl %v", ttl)
	}

	// --- без cookie резолвер не применяется ---
	req = httptest.NewRequest(http.MethodGet, "/endp/echo", nil)
	if _, err := sessions.Resolve(req); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("want ErrNoCredentials, got %v", err)
	}

	// --- удалённая сессия ---
	if err := sessions.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/endp/echo", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: id})
	if _, err := sessions.Resolve(req); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials for unknown session, got %v", err)
	}
}
