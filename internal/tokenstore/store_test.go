package tokenstore

import (
	"fmt"
	"testing"
)

func TestKey(t *testing.T) {
	if got := Key("acme"); got != "keytriage_user_token:acme" {
		t.Errorf("Key(acme) = %q", got)
	}
	if got := Key(""); got != "keytriage_user_token:default" {
		t.Errorf("Key(\"\") = %q, want default key", got)
	}
	if got := Key("  "); got != "keytriage_user_token:default" {
		t.Errorf("Key(blank) = %q, want default key", got)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()

	if got := m.Get("acme"); got != "" {
		t.Errorf("absent key should read empty, got %q", got)
	}

	m.Set("acme", "tkn_1")
	if got := m.Get("acme"); got != "tkn_1" {
		t.Errorf("Get = %q, want tkn_1", got)
	}

	// Writing overwrites.
	m.Set("acme", "tkn_2")
	if got := m.Get("acme"); got != "tkn_2" {
		t.Errorf("Get after overwrite = %q, want tkn_2", got)
	}

	// Workspaces do not interfere.
	m.Set("globex", "tkn_g")
	if got := m.Get("acme"); got != "tkn_2" {
		t.Errorf("acme token clobbered by globex write: %q", got)
	}

	m.Clear("acme")
	if got := m.Get("acme"); got != "" {
		t.Errorf("Get after Clear = %q, want empty", got)
	}
	if got := m.Get("globex"); got != "tkn_g" {
		t.Errorf("Clear(acme) should not touch globex, got %q", got)
	}

	// Clearing an absent key is a no-op.
	m.Clear("never-set")
}

// failingBackend simulates persistence that is unavailable (quota exceeded,
// permissions, disabled storage).
type failingBackend struct {
	sets int
}

func (f *failingBackend) Get(string) (string, error) {
	return "", fmt.Errorf("storage unavailable")
}

func (f *failingBackend) Set(string, string) error {
	f.sets++
	return fmt.Errorf("storage unavailable")
}

func (f *failingBackend) Clear(string) error {
	return fmt.Errorf("storage unavailable")
}

func TestFallbackSwallowsBackendFailures(t *testing.T) {
	backend := &failingBackend{}
	store := NewFallback(backend, nil)

	// None of these may panic or surface an error.
	if got := store.Get("acme"); got != "" {
		t.Errorf("Get on failing backend = %q, want empty", got)
	}

	store.Set("acme", "tkn_1")
	if backend.sets != 1 {
		t.Errorf("backend.Set attempts = %d, want 1", backend.sets)
	}

	// The in-memory copy keeps the session working.
	if got := store.Get("acme"); got != "tkn_1" {
		t.Errorf("Get after Set = %q, want tkn_1 from memory copy", got)
	}

	store.Clear("acme")
	if got := store.Get("acme"); got != "" {
		t.Errorf("Get after Clear = %q, want empty", got)
	}
}

func TestFallbackNilBackend(t *testing.T) {
	store := NewFallback(nil, nil)

	store.Set("acme", "tkn_1")
	if got := store.Get("acme"); got != "tkn_1" {
		t.Errorf("Get = %q, want tkn_1", got)
	}
	store.Clear("acme")
	if got := store.Get("acme"); got != "" {
		t.Errorf("Get after Clear = %q, want empty", got)
	}
}
