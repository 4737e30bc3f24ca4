package localstore

import (
	"path/filepath"
	"testing"
)

// openTestStore gives each test its own throwaway sqlite store file.
func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGormStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.Get("missing"); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := s.Put("cart", []byte(`[{"productId":"1"}]`)); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get("cart")
	if err != nil || !ok {
		t.Fatalf("expected value, got ok=%v err=%v", ok, err)
	}
	if string(v) != `[{"productId":"1"}]` {
		t.Errorf("unexpected value %q", v)
	}
}

func TestGormStoreUpsert(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("token", []byte(`"a"`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("token", []byte(`"b"`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	v, _, _ := s.Get("token")
	if string(v) != `"b"` {
		t.Errorf("expected overwritten value, got %q", v)
	}
}

func TestGormStoreDelete(t *testing.T) {
	s := openTestStore(t)

	_ = s.Put("user", []byte(`{}`))
	if err := s.Delete("user"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get("user"); ok {
		t.Error("expected key gone after delete")
	}
	// Deleting an absent key is fine
	if err := s.Delete("user"); err != nil {
		t.Errorf("expected no error deleting absent key, got %v", err)
	}
}

func TestGormStoreClosed(t *testing.T) {
	s := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get("x"); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := s.Put("x", nil); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestGetJSONDefensive(t *testing.T) {
	s := NewMemStore()

	var out []string

	// Missing key
	if GetJSON(s, "nope", &out) {
		t.Error("expected false for missing key")
	}

	// Corrupt document
	_ = s.Put("bad", []byte("{{{"))
	if GetJSON(s, "bad", &out) {
		t.Error("expected false for corrupt document")
	}
	if out != nil {
		t.Errorf("expected out untouched, got %v", out)
	}

	// Good document
	_ = PutJSON(s, "good", []string{"a", "b"})
	if !GetJSON(s, "good", &out) {
		t.Fatal("expected true for valid document")
	}
	if len(out) != 2 {
		t.Errorf("expected 2 elements, got %v", out)
	}
}

func TestMemStoreCopiesValues(t *testing.T) {
	s := NewMemStore()
	buf := []byte("abc")
	_ = s.Put("k", buf)
	buf[0] = 'z'

	v, _, _ := s.Get("k")
	if string(v) != "abc" {
		t.Errorf("expected stored value isolated from caller buffer, got %q", v)
	}
}
