package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Prints a Supabase-style access token for calling the API locally.
func main() {
	secret := os.Getenv("SUPABASE_JWT_SECRET")
	supabaseURL := os.Getenv("SUPABASE_URL")
	if secret == "" || supabaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: SUPABASE_JWT_SECRET and SUPABASE_URL environment variables must be set")
		fmt.Fprintln(os.Stderr, "Usage: SUPABASE_JWT_SECRET=secret SUPABASE_URL=https://xyz.supabase.co [USER_ID=<uuid>] go run scripts/generate-jwt.go")
		os.Exit(1)
	}

	// Generations are keyed by user UUID.
	userID := os.Getenv("USER_ID")
	if userID == "" {
		userID = uuid.NewString()
	} else if _, err := uuid.Parse(userID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: USER_ID must be a UUID: %v\n", err)
		os.Exit(1)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": "authenticated",
		"aud":  "authenticated",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
		"iss":  supabaseURL + "/auth/v1",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user id: %s\n", userID)
	fmt.Println(tokenString)
}
