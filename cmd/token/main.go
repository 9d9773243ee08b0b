package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"aivideo/internal/middleware"
)

// token mints a bearer token for the protected delete endpoint.
func main() {
	_ = godotenv.Load()

	var (
		subjectFlag string
		ttlFlag     time.Duration
	)
	flag.StringVar(&subjectFlag, "sub", "ops", "token subject")
	flag.DurationVar(&ttlFlag, "ttl", 24*time.Hour, "token lifetime (0 for no expiry)")
	flag.Parse()

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}
	if ttlFlag < 0 {
		fmt.Fprintln(os.Stderr, "-ttl must not be negative")
		os.Exit(1)
	}

	token, err := middleware.SignToken(secret, strings.TrimSpace(subjectFlag), ttlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
