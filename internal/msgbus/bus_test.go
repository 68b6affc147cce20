package msgbus

import (
	"testing"
	"time"
)

func TestMemoryFanOut(t *testing.T) {
	bus := NewMemory()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(Message{Type: AuthMessageType, Token: "tkn_1"})

	for i, ch := range []<-chan Message{ch1, ch2} {
		select {
		case msg := <-ch:
			if msg.Token != "tkn_1" {
				t.Errorf("subscriber %d got token %q", i, msg.Token)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the message", i)
		}
	}
}

func TestMemoryCancelClosesChannel(t *testing.T) {
	bus := NewMemory()
	ch, cancel := bus.Subscribe()

	cancel()
	cancel() // idempotent

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("received a message on cancelled subscription")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(Message{Type: AuthMessageType, Token: "late"})
}

func TestMemoryDropsWhenSubscriberStalls(t *testing.T) {
	bus := NewMemory()
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Overflow the subscriber buffer; Publish must never block.
		for i := 0; i < subscriberBuffer*3; i++ {
			bus.Publish(Message{Type: AuthMessageType, Token: "t"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stalled subscriber")
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		expected string
		want     bool
	}{
		{"empty expected accepts any", "https://evil.example", "", true},
		{"exact match", "https://app.keytriage.com", "https://app.keytriage.com", true},
		{"case insensitive", "HTTPS://App.KeyTriage.com", "https://app.keytriage.com", true},
		{"mismatch", "https://evil.example", "https://app.keytriage.com", false},
		{"empty origin rejected", "", "https://app.keytriage.com", false},
		{"loopback alias same port", "http://localhost:4800", "http://127.0.0.1:4800", true},
		{"loopback alias reversed", "http://127.0.0.1:4800", "http://localhost:4800", true},
		{"loopback different port", "http://localhost:4800", "http://127.0.0.1:4900", false},
		{"loopback scheme mismatch", "https://localhost:4800", "http://127.0.0.1:4800", false},
		{"loopback default http port", "http://localhost", "http://127.0.0.1:80", true},
		{"loopback default https port", "https://localhost", "https://127.0.0.1:443", true},
		{"loopback vs non-loopback", "http://localhost:4800", "http://example.com:4800", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OriginAllowed(tt.origin, tt.expected); got != tt.want {
				t.Errorf("OriginAllowed(%q, %q) = %v, want %v", tt.origin, tt.expected, got, tt.want)
			}
		})
	}
}
