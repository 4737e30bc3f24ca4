package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func LoadEnv() error {
	// Try to load .env file if it exists (for local development).
	// In packaged builds the environment variables are set directly.
	if err := godotenv.Load(); err != nil {
		// .env file not found is not an error
		return nil
	}
	return nil
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	// Critical variables - the client cannot function without these
	if os.Getenv("TRENDORA_API_URL") == "" {
		missing = append(missing, "TRENDORA_API_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	// Non-critical variables - log warnings but don't fail
	if os.Getenv("TRENDORA_STORE_PATH") == "" {
		log.Println("WARNING: TRENDORA_STORE_PATH not set - defaulting to ./trendora.db")
	}

	return nil
}

// APIBaseURL is the base URL of the remote storefront API, without a
// trailing slash.
func APIBaseURL() string {
	url := os.Getenv("TRENDORA_API_URL")
	for len(url) > 0 && url[len(url)-1] == '/' {
		url = url[:len(url)-1]
	}
	return url
}

// StorePath is the path of the local sqlite store file.
func StorePath() string {
	if p := os.Getenv("TRENDORA_STORE_PATH"); p != "" {
		return p
	}
	return "trendora.db"
}

// SyncDebounce is the quiet period after the last cart mutation before a
// push is sent. Defaults to 2 seconds.
func SyncDebounce() time.Duration {
	if v := os.Getenv("SYNC_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
		log.Printf("WARNING: invalid SYNC_DEBOUNCE_MS %q, using default", v)
	}
	return 2 * time.Second
}

// HTTPTimeout bounds every request to the remote API. Defaults to 10 seconds.
func HTTPTimeout() time.Duration {
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if s, err := strconv.Atoi(v); err == nil && s > 0 {
			return time.Duration(s) * time.Second
		}
		log.Printf("WARNING: invalid HTTP_TIMEOUT_SECONDS %q, using default", v)
	}
	return 10 * time.Second
}
