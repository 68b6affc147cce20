package msgbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// CallbackServer receives completion messages over loopback HTTP and
// publishes them onto a bus. It binds an ephemeral 127.0.0.1 port so the
// flow start request can advertise the resulting origin as post_origin.
type CallbackServer struct {
	bus      *Memory
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

// NewCallbackServer binds a loopback listener and prepares the server. Call
// Start to begin serving and Shutdown to stop.
func NewCallbackServer(bus *Memory, logger *slog.Logger) (*CallbackServer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("bind callback listener: %w", err)
	}

	s := &CallbackServer{
		bus:      bus,
		listener: ln,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /complete", s.handleComplete)

	s.server = &http.Server{
		Handler:      s.withLogging(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s, nil
}

// Origin returns the server's loopback origin, e.g. "http://127.0.0.1:49152".
func (s *CallbackServer) Origin() string {
	return "http://" + s.listener.Addr().String()
}

// Start begins serving. It returns when the server stops; run it in a
// goroutine and treat http.ErrServerClosed as a clean exit.
func (s *CallbackServer) Start() error {
	s.logger.Debug("starting callback server", "origin", s.Origin())
	return s.server.Serve(s.listener)
}

// Shutdown gracefully stops the server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *CallbackServer) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("callback request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *CallbackServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *CallbackServer) handleComplete(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	msg.Origin = r.Header.Get("Origin")

	s.bus.Publish(msg)
	s.logger.Debug("completion message received",
		"type", msg.Type,
		"origin", msg.Origin,
		"has_token", msg.Token != "")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
