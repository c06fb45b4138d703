// Command issue_token prints a bearer token for an API collaborator.
//
// Usage: issue_token <subject> <user|admin|payment>
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/config"
	"github.com/ArowuTest/competitions-backend/pkg/jwt"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}
	if len(os.Args) < 3 {
		log.Fatal("usage: issue_token <subject> <user|admin|payment>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tokens := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	token, err := tokens.Issue(os.Args[1], os.Args[2])
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
