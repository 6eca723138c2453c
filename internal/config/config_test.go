package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-portfolio/roles-endpoint/internal/middleware/authz"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("unexpected addr %q", cfg.Addr)
	}
	if cfg.RequiredRole != "Echoer" || cfg.DefaultPolicy != "deny" {
		t.Errorf("unexpected policy options %q/%q", cfg.RequiredRole, cfg.DefaultPolicy)
	}
	if cfg.RateLimit.Strategy != "fixed" || cfg.RateLimit.Limit != 5 || cfg.RateLimit.Window != time.Second {
		t.Errorf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.Session.Cookie != "session_id" {
		t.Errorf("unexpected session cookie %q", cfg.Session.Cookie)
	}

	p, err := cfg.Policy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if got := p.RuleFor("/endp/echo").RolesAllowed; len(got) != 1 || got[0] != "Echoer" {
		t.Errorf("default policy must require Echoer, got %v", got)
	}
	if !p.RuleFor("/anything").DenyAll {
		t.Errorf("default policy must deny unknown routes")
	}

	if _, ok, err := cfg.JWTConfig(); ok || err != nil {
		t.Errorf("no jwt key configured: want ok=false, got ok=%v err=%v", ok, err)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"PORT":                "9090",
		"LOG_LEVEL":           "debug",
		"ECHO_REQUIRED_ROLE":  "Speaker",
		"DEFAULT_POLICY":      "permit",
		"JWT_HMAC_SECRET":     strings.Repeat("k", 32),
		"JWT_ISSUER":          "https://issuer.test",
		"REDIS_ADDR":          "localhost:6379",
		"REDIS_DB":            "2",
		"RATE_LIMIT_STRATEGY": "sliding",
		"RATE_LIMIT":          "10",
		"RATE_WINDOW":         "2s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected %q %q", cfg.Addr, cfg.LogLevel)
	}
	if cfg.Redis.DB != 2 || cfg.RateLimit.Limit != 10 || cfg.RateLimit.Window != 2*time.Second {
		t.Errorf("unexpected numbers %+v %+v", cfg.Redis, cfg.RateLimit)
	}

	p, err := cfg.Policy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if p.Default != authz.Permit {
		t.Errorf("want permit default")
	}
	if got := p.RuleFor("/endp/echo").RolesAllowed; len(got) != 1 || got[0] != "Speaker" {
		t.Errorf("want Speaker, got %v", got)
	}

	jc, ok, err := cfg.JWTConfig()
	if err != nil || !ok {
		t.Fatalf("jwt config: ok=%v err=%v", ok, err)
	}
	if string(jc.HMACKey) != strings.Repeat("k", 32) || jc.Issuer != "https://issuer.test" {
		t.Errorf("unexpected jwt config %+v", jc)
	}
}

func TestLoadInvalid(t *testing.T) {
	bad := map[string]map[string]string{
		"bad level":      {"LOG_LEVEL": "loud"},
		"bad effect":     {"DEFAULT_POLICY": "maybe"},
		"short secret":   {"JWT_HMAC_SECRET": "short"},
		"bad strategy":   {"RATE_LIMIT_STRATEGY": "leaky"},
		"bad int":        {"RATE_LIMIT": "ten"},
		"zero limit":     {"RATE_LIMIT": "0"},
		"bad duration":   {"RATE_WINDOW": "soon"},
		"missing file":   {"POLICY_FILE": "/nonexistent/policy.yaml"},
		"missing pubkey": {"JWT_PUBLIC_KEY_FILE": "/nonexistent/key.pem"},
	}
	for name, m := range bad {
		if _, err := LoadFrom(envMap(m)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	src := "default: deny\nroutes:\n  /endp/echo:\n    rolesAllowed: [Admin]\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFrom(envMap(map[string]string{"POLICY_FILE": path}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, err := cfg.Policy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if got := p.RuleFor("/endp/echo").RolesAllowed; len(got) != 1 || got[0] != "Admin" {
		t.Errorf("want Admin from file, got %v", got)
	}
}
