// Command token prints a bearer token signed with the service's configured secret.
// Intended for local development and load tests.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/yuzvak/salesboard-service/internal/config"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/auth"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	subject := flag.String("sub", "", "Token subject (required)")
	name := flag.String("name", "", "Display name recorded as buyer or seller")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL.Duration)
	raw, err := tokens.Issue(auth.Principal{Subject: *subject, Name: *name})
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue token:", err)
		os.Exit(1)
	}
	fmt.Println(raw)
}
