package popup

import (
	"context"
	"time"
)

// Liveness polling defaults. The grace period absorbs cross-window
// transitions where the window briefly reads as closed mid-redirect.
const (
	DefaultCheckInterval = 400 * time.Millisecond
	DefaultClosedGrace   = 1500 * time.Millisecond
)

// ClosedWatcher waits for a window to be closed and stay closed. A window
// that reads closed but comes back within the grace period does not count.
type ClosedWatcher struct {
	Window        Controller
	CheckInterval time.Duration
	ClosedGrace   time.Duration
}

// Wait blocks until the window has been continuously closed for the grace
// period, then returns ErrClosed. It returns ctx.Err() if the context ends
// first.
func (w *ClosedWatcher) Wait(ctx context.Context) error {
	interval := w.CheckInterval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	grace := w.ClosedGrace
	if grace <= 0 {
		grace = DefaultClosedGrace
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var closedSince time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !w.Window.IsClosed() {
				closedSince = time.Time{}
				continue
			}
			if closedSince.IsZero() {
				closedSince = time.Now()
				continue
			}
			if time.Since(closedSince) >= grace {
				return ErrClosed
			}
		}
	}
}
