// Command token mints a bearer token for local testing of the HTTP API.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gym-class-booking/internal/models"
	"gym-class-booking/pkg/auth"

	"github.com/caarlos0/env/v11"
)

type tokenConfig struct {
	JWTSecret string `env:"JWT_SECRET,required"`
}

func main() {
	user := flag.String("user", "", "member id to put in the token subject")
	roles := flag.String("roles", "member", "comma separated roles (member, admin)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	var cfg tokenConfig
	if err := env.Parse(&cfg); err != nil {
		exitf("parse env: %v", err)
	}

	var parsed []models.Role
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			parsed = append(parsed, models.Role(r))
		}
	}

	token, err := auth.NewTokenService(cfg.JWTSecret).Issue(*user, parsed, *ttl)
	if err != nil {
		exitf("issue token: %v", err)
	}
	fmt.Println(token)
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
