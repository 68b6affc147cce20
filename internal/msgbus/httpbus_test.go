package msgbus

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

func startCallbackServer(t *testing.T) (*CallbackServer, *Memory) {
	t.Helper()

	bus := NewMemory()
	srv, err := NewCallbackServer(bus, nil)
	if err != nil {
		t.Fatalf("NewCallbackServer: %v", err)
	}

	go srv.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv, bus
}

func TestCallbackServerPublishes(t *testing.T) {
	srv, bus := startCallbackServer(t)

	ch, cancel := bus.Subscribe()
	defer cancel()

	req, err := http.NewRequest(http.MethodPost, srv.Origin()+"/complete",
		bytes.NewBufferString(`{"type":"keytriage-zendesk-auth","token":"tkn_1"}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://id.keytriage.com")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /complete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	select {
	case msg := <-ch:
		if msg.Type != AuthMessageType {
			t.Errorf("Type = %q", msg.Type)
		}
		if msg.Token != "tkn_1" {
			t.Errorf("Token = %q", msg.Token)
		}
		if msg.Origin != "https://id.keytriage.com" {
			t.Errorf("Origin = %q", msg.Origin)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message published after callback")
	}
}

func TestCallbackServerRejectsBadBody(t *testing.T) {
	srv, _ := startCallbackServer(t)

	resp, err := http.Post(srv.Origin()+"/complete", "application/json",
		strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST /complete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCallbackServerOrigin(t *testing.T) {
	srv, _ := startCallbackServer(t)

	origin := srv.Origin()
	if !strings.HasPrefix(origin, "http://127.0.0.1:") {
		t.Errorf("Origin = %q, want loopback http origin", origin)
	}

	resp, err := http.Get(origin + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
}
