// Package tokenstore persists session tokens keyed by workspace.
//
// The coordinator must stay functional with no persistence at all: every
// Store operation is infallible from the caller's point of view. Absent keys
// read as empty, writes overwrite, and backend failures silently degrade to
// an in-memory copy so the worst case is a fresh handshake next session.
package tokenstore

import (
	"log/slog"
	"strings"
	"sync"
)

// KeyPrefix namespaces persisted token keys.
const KeyPrefix = "keytriage_user_token:"

// DefaultWorkspace is the scoping key used when the workspace is unknown at
// storage time.
const DefaultWorkspace = "default"

// Key returns the namespaced storage key for a workspace.
func Key(workspace string) string {
	ws := strings.TrimSpace(workspace)
	if ws == "" {
		ws = DefaultWorkspace
	}
	return KeyPrefix + ws
}

// Store is the capability-checked token store. Implementations never fail:
// Get returns "" on absence or backend trouble, Set and Clear are best-effort.
type Store interface {
	Get(workspace string) string
	Set(workspace, token string)
	Clear(workspace string)
}

// Backend is a fallible key-value store a Fallback wraps into a Store.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Clear(key string) error
}

// Memory is a process-local Store. It doubles as the fallback copy inside
// Fallback so reads keep working after the backend goes away mid-session.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(workspace string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[Key(workspace)]
}

func (m *Memory) Set(workspace, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[Key(workspace)] = token
}

func (m *Memory) Clear(workspace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, Key(workspace))
}

// Fallback adapts a fallible Backend into a Store. Backend errors are logged
// at debug level and swallowed; the in-memory copy keeps the current session
// working.
type Fallback struct {
	backend Backend
	mem     *Memory
	logger  *slog.Logger
}

// NewFallback wraps backend. A nil backend yields a purely in-memory store.
func NewFallback(backend Backend, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		backend: backend,
		mem:     NewMemory(),
		logger:  logger,
	}
}

func (f *Fallback) Get(workspace string) string {
	if f.backend != nil {
		value, err := f.backend.Get(Key(workspace))
		if err == nil {
			return value
		}
		f.logger.Debug("token store read failed, using memory copy", "error", err)
	}
	return f.mem.Get(workspace)
}

func (f *Fallback) Set(workspace, token string) {
	f.mem.Set(workspace, token)
	if f.backend == nil {
		return
	}
	if err := f.backend.Set(Key(workspace), token); err != nil {
		f.logger.Debug("token store write failed", "error", err)
	}
}

func (f *Fallback) Clear(workspace string) {
	f.mem.Clear(workspace)
	if f.backend == nil {
		return
	}
	if err := f.backend.Clear(Key(workspace)); err != nil {
		f.logger.Debug("token store clear failed", "error", err)
	}
}
