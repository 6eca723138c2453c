// Command token выпускает учётные данные для ручных вызовов эндпоинта:
// HS256 JWT (по умолчанию) или сессию в Redis (-session).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-portfolio/roles-endpoint/internal/auth"
	"github.com/go-portfolio/roles-endpoint/internal/security"
	"github.com/go-portfolio/roles-endpoint/internal/store"
)

func main() {
	var (
		name      = flag.String("name", "", "имя вызывающего (claim upn)")
		groups    = flag.String("groups", "Echoer", "роли через запятую (claim groups)")
		secret    = flag.String("secret", os.Getenv("JWT_HMAC_SECRET"), "HMAC-ключ, не короче 32 байт")
		issuer    = flag.String("issuer", os.Getenv("JWT_ISSUER"), "claim iss")
		audience  = flag.String("audience", os.Getenv("JWT_AUDIENCE"), "claim aud")
		ttl       = flag.Duration("ttl", time.Hour, "время жизни")
		session   = flag.Bool("session", false, "создать сессию в Redis вместо JWT")
		redisAddr = flag.String("redis", "localhost:6379", "адрес Redis для -session")
	)
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})

	if *name == "" {
		log.Fatal().Msg("-name is required")
	}
	p := security.Principal{Name: *name, Roles: splitRoles(*groups)}

	if *session {
		ctx := context.Background()
		rdb, err := store.Connect(ctx, *redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rdb.Close()

		id, err := auth.NewSessionStore(rdb, "", *ttl).Create(ctx, p)
		if err != nil {
			log.Fatal().Err(err).Msg("create session")
		}
		fmt.Println(id)
		return
	}

	if len(*secret) < 32 {
		log.Fatal().Msg("-secret must be at least 32 bytes")
	}
	tok, err := auth.SignHS256([]byte(*secret), p, *issuer, *audience, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(tok)
}

func splitRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
