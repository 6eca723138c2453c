package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/go-portfolio/roles-endpoint/internal/security"
)

// Claims — набор claim'ов токена в духе MicroProfile JWT:
// имя берётся из upn, роли из groups.
type Claims struct {
	jwt.RegisteredClaims
	UPN               string   `json:"upn,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Groups            []string `json:"groups,omitempty"`
}

// Name возвращает отображаемое имя: upn, затем preferred_username, затем sub.
func (c Claims) Name() string {
	for _, v := range []string{c.UPN, c.PreferredUsername, c.Subject} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// JWTConfig описывает, каким токенам доверять.
type JWTConfig struct {
	Issuer    string
	Audience  string
	HMACKey   []byte
	PublicKey *rsa.PublicKey
	ClockSkew time.Duration
}

// JWTResolver проверяет Bearer-токен и строит из него principal.
type JWTResolver struct {
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
}

// NewJWTResolver собирает резолвер. Допустимые алгоритмы определяются типом ключа,
// так что подмена HS256 на RSA-ключе невозможна.
func NewJWTResolver(cfg JWTConfig) (*JWTResolver, error) {
	var (
		methods []string
		key     any
	)
	switch {
	case cfg.PublicKey != nil:
		methods = []string{"RS256", "RS384", "RS512"}
		key = cfg.PublicKey
	case len(cfg.HMACKey) > 0:
		if len(cfg.HMACKey) < 32 {
			return nil, errors.New("jwt: hmac key must be at least 32 bytes")
		}
		methods = []string{"HS256", "HS384", "HS512"}
		key = cfg.HMACKey
	default:
		return nil, errors.New("jwt: no verification key configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.ClockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTResolver{
		parser: jwt.NewParser(opts...),
		keyFunc: func(*jwt.Token) (any, error) {
			return key, nil
		},
	}, nil
}

// Resolve реализует Resolver.
func (j *JWTResolver) Resolve(r *http.Request) (security.Principal, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return security.Principal{}, err
	}
	return j.Parse(raw)
}

// Parse проверяет подпись и claims токена.
func (j *JWTResolver) Parse(raw string) (security.Principal, error) {
	claims := &Claims{}
	if _, err := j.parser.ParseWithClaims(raw, claims, j.keyFunc); err != nil {
		return security.Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	name := claims.Name()
	if name == "" {
		return security.Principal{}, ErrMissingIdentity
	}
	return security.Principal{
		Name:    name,
		Subject: claims.Subject,
		Roles:   claims.Groups,
	}, nil
}

// BearerToken извлекает токен из заголовка Authorization.
// Без заголовка — ErrNoCredentials, с чужой схемой — тоже: её может обработать другой резолвер.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrNoCredentials
	}
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", ErrNoCredentials
	}
	tok := strings.TrimSpace(h[7:])
	if tok == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrInvalidCredentials)
	}
	return tok, nil
}

// ParseRSAPublicKeyFromPEM разбирает PEM с открытым RSA ключом (PKIX или PKCS#1).
func ParseRSAPublicKeyFromPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("failed to decode PEM")
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaPub, nil
}

// SignHS256 выпускает токен для principal. Используется cmd/token и тестами.
func SignHS256(key []byte, p security.Principal, issuer, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UPN:    p.Name,
		Groups: p.Roles,
	}
	if claims.Subject == "" {
		claims.Subject = p.Name
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
