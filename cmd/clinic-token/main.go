// Command clinic-token issues development bearer tokens for the scheduling API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/physiocare/clinic/internal/auth"
	"github.com/physiocare/clinic/pkg/config"
	"github.com/physiocare/clinic/pkg/types"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "", "user id placed in the token")
	name := flag.String("name", "", "display name placed in the token")
	role := flag.String("role", string(types.RoleReceptionist), "patient, physiotherapist, receptionist or admin")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to the configured auth.token_ttl")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	actor := &types.Actor{ID: *userID, Name: *name, Role: types.UserRole(*role)}
	if actor.ID == "" || !actor.Role.Valid() {
		flag.Usage()
		os.Exit(2)
	}

	lifetime := time.Duration(cfg.Auth.TokenTTL) * time.Second
	if *ttl > 0 {
		lifetime = *ttl
	}

	tokens := auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, lifetime)
	token, expiresAt, err := tokens.GenerateToken(actor)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}
