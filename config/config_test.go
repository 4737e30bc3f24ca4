package config

import (
	"testing"
	"time"
)

func TestValidateEnvRequiresAPIURL(t *testing.T) {
	t.Setenv("TRENDORA_API_URL", "")
	if err := ValidateEnv(); err == nil {
		t.Error("expected error without TRENDORA_API_URL")
	}

	t.Setenv("TRENDORA_API_URL", "http://localhost:8080")
	if err := ValidateEnv(); err != nil {
		t.Errorf("expected validation to pass, got %v", err)
	}
}

func TestAPIBaseURLStripsTrailingSlash(t *testing.T) {
	t.Setenv("TRENDORA_API_URL", "http://localhost:8080/")
	if got := APIBaseURL(); got != "http://localhost:8080" {
		t.Errorf("got %q", got)
	}
}

func TestStorePathDefault(t *testing.T) {
	t.Setenv("TRENDORA_STORE_PATH", "")
	if got := StorePath(); got != "trendora.db" {
		t.Errorf("got %q", got)
	}
	t.Setenv("TRENDORA_STORE_PATH", "/tmp/x.db")
	if got := StorePath(); got != "/tmp/x.db" {
		t.Errorf("got %q", got)
	}
}

func TestSyncDebounce(t *testing.T) {
	t.Setenv("SYNC_DEBOUNCE_MS", "")
	if got := SyncDebounce(); got != 2*time.Second {
		t.Errorf("default: got %v", got)
	}
	t.Setenv("SYNC_DEBOUNCE_MS", "250")
	if got := SyncDebounce(); got != 250*time.Millisecond {
		t.Errorf("override: got %v", got)
	}
	t.Setenv("SYNC_DEBOUNCE_MS", "bogus")
	if got := SyncDebounce(); got != 2*time.Second {
		t.Errorf("invalid falls back to default: got %v", got)
	}
}

func TestHTTPTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "")
	if got := HTTPTimeout(); got != 10*time.Second {
		t.Errorf("default: got %v", got)
	}
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	if got := HTTPTimeout(); got != 3*time.Second {
		t.Errorf("override: got %v", got)
	}
}
