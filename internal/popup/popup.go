// Package popup supervises the authorization window: opening it, steering it
// to the consent URL, and noticing when the agent closes it. The window's
// lifetime bounds the interactive half of a handshake.
package popup

import (
	"context"
	"errors"
)

// Window dimensions for the authorization popup.
const (
	WindowWidth  = 560
	WindowHeight = 760
)

var (
	// ErrBlocked means no window could be opened at all, before any flow
	// state was created.
	ErrBlocked = errors.New("authorization window could not be opened")

	// ErrClosed means the agent dismissed the window before the flow
	// finished.
	ErrClosed = errors.New("authorization window was closed")
)

// Controller drives one authorization window.
type Controller interface {
	// Navigate points the window at the consent URL.
	Navigate(ctx context.Context, url string) error

	// IsClosed reports whether the window has gone away.
	IsClosed() bool

	// Close dismisses the window. Safe to call more than once.
	Close()
}

// Opener creates windows. The production implementation launches a browser;
// tests substitute fakes.
type Opener interface {
	Open(ctx context.Context) (Controller, error)
}
