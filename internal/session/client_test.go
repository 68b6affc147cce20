package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keytriage/ktauth/internal/identity"
	"github.com/keytriage/ktauth/internal/tokenstore"
)

func TestAPIClientBearerFromStore(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]int{"count": 3})
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	store.Set("acme", "tkn_1")
	c, err := NewAPIClient(srv.URL, "acme", store, nil)
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := c.Get(context.Background(), "/api/v1/tickets", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer tkn_1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if out.Count != 3 {
		t.Errorf("count = %d", out.Count)
	}
}

func TestAPIClient401ClearsTokenOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	store.Set("acme", "tkn_stale")
	c, err := NewAPIClient(srv.URL, "acme", store, nil)
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}

	if err := c.Get(context.Background(), "/api/v1/tickets", nil); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("Get = %v, want ErrUnauthorized", err)
	}
	if got := store.Get("acme"); got != "" {
		t.Errorf("store still holds %q after 401", got)
	}

	// A fresh handshake afterwards must not be poisoned by earlier 401s.
	store.Set("acme", "tkn_fresh")
	if got := store.Get("acme"); got != "tkn_fresh" {
		t.Errorf("store = %q, want tkn_fresh", got)
	}
}

func TestAPIClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	store.Set("acme", "tkn_1")
	c, err := NewAPIClient(srv.URL, "acme", store, nil)
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}

	err = c.Post(context.Background(), "/api/v1/tickets", map[string]string{"subject": "x"}, nil)
	var apiErr *identity.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if got := store.Get("acme"); got != "tkn_1" {
		t.Errorf("token cleared on non-401 failure, store = %q", got)
	}
}
